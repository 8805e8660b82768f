package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-tracker/internal/model"
	"github.com/p-n-ai/pai-tracker/internal/report"
	"github.com/p-n-ai/pai-tracker/internal/tracker"
)

func newStatusCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show streak, completion and today's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				s, _ := tr.State()
				sum := model.Summarize(s)
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Streak: %d day(s)  Last visit: %s\n", s.Streak, s.LastVisit)
				fmt.Fprintf(w, "DSA: %d%% (%d/%d)  Core: %d%% (%d/%d)  Overall: %d%%\n",
					sum.DSA, sum.CompletedSubtopics, sum.TotalSubtopics,
					sum.Core, sum.CompletedItems, sum.TotalItems,
					sum.Overall)
				today := tr.Today()
				rec, err := tr.GetDayData(today)
				if err != nil {
					return err
				}
				printDay(w, today, rec)
				return nil
			})
		},
	}
}

func newTopicsCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List DSA topics and their subtopics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				s, _ := tr.State()
				w := cmd.OutOrStdout()
				for _, t := range s.Topics {
					fmt.Fprintf(w, "%d. %s (%s) %d%%\n", t.ID, t.Name, t.Slug, t.Progress)
					for _, st := range t.Subtopics {
						fmt.Fprintf(w, "   %s %s  %s\n", check(st.Completed), st.ID, st.Name)
					}
				}
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <topicID> <subtopicID>",
		Short: "Toggle a subtopic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topicID, err := parseInt(args[0], "topic id")
			if err != nil {
				return err
			}
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				if err := tr.ToggleSubtopic(cmd.Context(), topicID, args[1]); err != nil {
					return err
				}
				s, _ := tr.State()
				for _, t := range s.Topics {
					if t.ID == topicID {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%%\n", t.Name, t.Progress)
					}
				}
				return nil
			})
		},
	})
	return cmd
}

func newCoreCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core",
		Short: "List core subjects and their checklists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				s, _ := tr.State()
				w := cmd.OutOrStdout()
				for _, sub := range s.InterviewSubjects {
					fmt.Fprintf(w, "%d. %s %d%%\n", sub.ID, sub.Name, sub.Progress)
					for _, it := range sub.Items {
						fmt.Fprintf(w, "   %s %s  %s\n", check(it.Completed), it.ID, it.Name)
					}
				}
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <subjectID> <itemID>",
		Short: "Toggle a core-subject item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, err := parseInt(args[0], "subject id")
			if err != nil {
				return err
			}
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				if err := tr.ToggleCoreItem(cmd.Context(), subjectID, args[1]); err != nil {
					return err
				}
				s, _ := tr.State()
				for _, sub := range s.InterviewSubjects {
					if sub.ID == subjectID {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%%\n", sub.Name, sub.Progress)
					}
				}
				return nil
			})
		},
	})
	return cmd
}

func newDayCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "day [date]",
		Short: "Show the tasks and notes of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				date, err := optionalDate(tr, args)
				if err != nil {
					return err
				}
				rec, err := tr.GetDayData(date)
				if err != nil {
					return err
				}
				printDay(cmd.OutOrStdout(), date, rec)
				return nil
			})
		},
	}
}

func newTaskCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, toggle or remove a day's tasks",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <date> <text...>",
			Short: "Add a task to a day",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
					date, err := resolveDate(tr, args[0])
					if err != nil {
						return err
					}
					id, err := tr.AddTask(cmd.Context(), date, strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					if id == 0 {
						return fmt.Errorf("task text must not be blank")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added task %d on %s\n", id, date)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <date> <id>",
			Short: "Toggle a task",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseTaskID(args[1])
				if err != nil {
					return err
				}
				return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
					date, err := resolveDate(tr, args[0])
					if err != nil {
						return err
					}
					if err := tr.ToggleDailyTask(cmd.Context(), date, id); err != nil {
						return err
					}
					rec, _ := tr.GetDayData(date)
					printDay(cmd.OutOrStdout(), date, rec)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <date> <id>",
			Short: "Remove a task",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseTaskID(args[1])
				if err != nil {
					return err
				}
				return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
					date, err := resolveDate(tr, args[0])
					if err != nil {
						return err
					}
					if err := tr.RemoveTask(cmd.Context(), date, id); err != nil {
						return err
					}
					rec, _ := tr.GetDayData(date)
					printDay(cmd.OutOrStdout(), date, rec)
					return nil
				})
			},
		},
	)
	return cmd
}

func newNotesCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <date> <text...>",
		Short: "Replace the notes of a day",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				date, err := resolveDate(tr, args[0])
				if err != nil {
					return err
				}
				return tr.UpdateNotes(cmd.Context(), date, strings.Join(args[1:], " "))
			})
		},
	}
}

func newWeekCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "week [date]",
		Short: "Show the week (Sunday to Saturday) containing a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				date, err := optionalDate(tr, args)
				if err != nil {
					return err
				}
				days, err := tr.Week(date)
				if err != nil {
					return err
				}
				printSpan(cmd, days)
				return nil
			})
		},
	}
}

func newMonthCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "month [date]",
		Short: "Show every day of the month containing a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				date, err := optionalDate(tr, args)
				if err != nil {
					return err
				}
				days, err := tr.Month(date)
				if err != nil {
					return err
				}
				printSpan(cmd, days)
				return nil
			})
		},
	}
}

func printSpan(cmd *cobra.Command, days []model.DayView) {
	w := cmd.OutOrStdout()
	for _, day := range days {
		fmt.Fprintf(w, "%s %s  %d/%d (%d%%)\n", day.Date, day.Weekday.String()[:3], day.Completed, day.Total, day.Percent)
	}
}

func newResetCmd(d *deps) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all progress and history and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset discards all progress; pass --yes to confirm")
			}
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				if err := tr.ResetProgress(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "progress reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newExportCmd(d *deps) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export progress as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.session(cmd.Context(), func(tr *tracker.Tracker) error {
				s, _ := tr.State()
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				if err := report.Write(f, s, d.now()); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("closing %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "tracker.xlsx", "output file")
	return cmd
}
