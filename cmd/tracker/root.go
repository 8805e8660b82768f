package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-tracker/internal/curriculum"
	"github.com/p-n-ai/pai-tracker/internal/events"
	"github.com/p-n-ai/pai-tracker/internal/jobs"
	"github.com/p-n-ai/pai-tracker/internal/model"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
	"github.com/p-n-ai/pai-tracker/internal/storage"
	"github.com/p-n-ai/pai-tracker/internal/tracker"
)

// deps are the collaborators commands are built from.
type deps struct {
	cfg       *config.Config
	now       func() time.Time
	openStore func(ctx context.Context, cfg *config.Config) (storage.DocumentStore, func() error, error)
	jobsRepo  func(cfg *config.Config) jobs.Repository
	events    events.Logger
}

func newRootCmd(d *deps) *cobra.Command {
	root := &cobra.Command{
		Use:          "tracker",
		Short:        "Track DSA topics, core subjects and daily tasks",
		SilenceUsage: true,
	}

	root.AddCommand(
		newStatusCmd(d),
		newTopicsCmd(d),
		newCoreCmd(d),
		newDayCmd(d),
		newTaskCmd(d),
		newNotesCmd(d),
		newWeekCmd(d),
		newMonthCmd(d),
		newResetCmd(d),
		newExportCmd(d),
		newJobsCmd(d),
	)
	return root
}

// session loads the tracker for one command and runs fn against it.
func (d *deps) session(ctx context.Context, fn func(tr *tracker.Tracker) error) error {
	store, closeStore, err := d.openStore(ctx, d.cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer closeStore()

	catalog, err := curriculum.Load(d.cfg.CurriculumPath)
	if err != nil {
		return err
	}
	loc, err := d.cfg.Location()
	if err != nil {
		return err
	}

	tr := tracker.New(tracker.Config{
		Store:    store,
		Catalog:  catalog,
		Events:   d.events,
		Now:      d.now,
		Location: loc,
		Profile:  d.cfg.Store.Profile,
	})
	if err := tr.Load(ctx); err != nil {
		return err
	}
	return fn(tr)
}

// resolveDate accepts "today" or a yyyy-MM-dd key.
func resolveDate(tr *tracker.Tracker, arg string) (string, error) {
	if arg == "" || strings.EqualFold(arg, "today") {
		return tr.Today(), nil
	}
	if _, err := model.ParseDateKey(arg, nil); err != nil {
		return "", err
	}
	return arg, nil
}

func optionalDate(tr *tracker.Tracker, args []string) (string, error) {
	if len(args) == 0 {
		return tr.Today(), nil
	}
	return resolveDate(tr, args[0])
}

func parseInt(arg, what string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return n, nil
}

func parseTaskID(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return n, nil
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func printDay(w io.Writer, date string, rec model.DayRecord) {
	completed, total, pct := model.DayCompletion(rec)
	fmt.Fprintf(w, "%s  %d/%d tasks (%d%%)\n", date, completed, total, pct)
	for _, t := range rec.Tasks {
		fmt.Fprintf(w, "  %s %d  %s\n", check(t.Completed), t.ID, t.Text)
	}
	if rec.Notes != "" {
		fmt.Fprintf(w, "  notes: %s\n", rec.Notes)
	}
}
