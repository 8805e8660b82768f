package curriculum

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

//go:embed catalog/default.yaml
var builtin embed.FS

// Catalog is an immutable seed catalog. Accessors return deep copies.
type Catalog struct {
	topics     []model.Topic
	subjects   []model.CoreSubject
	dailyTasks []model.Task
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	data, err := builtin.ReadFile("catalog/default.yaml")
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing built-in catalog: %w", err)
	}
	return newCatalog(f)
})

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("curriculum: invalid built-in catalog: %v", err))
	}
	return c
}

// Load returns the built-in catalog with sections replaced by those found in
// the YAML files under dir. An empty dir yields the built-in catalog.
func Load(dir string) (*Catalog, error) {
	base := Default()
	if dir == "" {
		return base, nil
	}

	var override File
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			slog.Warn("skipping invalid catalog YAML", "path", path, "error", err)
			return nil
		}
		override.Topics = append(override.Topics, f.Topics...)
		override.Subjects = append(override.Subjects, f.Subjects...)
		override.DailyTasks = append(override.DailyTasks, f.DailyTasks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog from %s: %w", dir, err)
	}

	merged := File{Topics: base.topics, Subjects: base.subjects, DailyTasks: base.dailyTasks}
	if len(override.Topics) > 0 {
		merged.Topics = override.Topics
	}
	if len(override.Subjects) > 0 {
		merged.Subjects = override.Subjects
	}
	if len(override.DailyTasks) > 0 {
		merged.DailyTasks = override.DailyTasks
	}

	c, err := newCatalog(merged)
	if err != nil {
		return nil, fmt.Errorf("loading catalog from %s: %w", dir, err)
	}
	slog.Info("curriculum loaded",
		"dir", dir,
		"topics", len(c.topics),
		"subjects", len(c.subjects),
		"daily_tasks", len(c.dailyTasks),
	)
	return c, nil
}

func newCatalog(f File) (*Catalog, error) {
	c := &Catalog{}

	topicIDs := make(map[int]bool)
	for _, t := range f.Topics {
		if topicIDs[t.ID] {
			return nil, fmt.Errorf("duplicate topic id %d", t.ID)
		}
		topicIDs[t.ID] = true
		if t.Name == "" {
			return nil, fmt.Errorf("topic %d has no name", t.ID)
		}
		if err := uniqueIDs(t.Subtopics, func(s model.Subtopic) string { return s.ID }); err != nil {
			return nil, fmt.Errorf("topic %d: %w", t.ID, err)
		}
		if t.Slug == "" {
			t.Slug = Slugify(t.Name)
		}
		c.topics = append(c.topics, t.WithProgress())
	}

	subjectIDs := make(map[int]bool)
	for _, s := range f.Subjects {
		if subjectIDs[s.ID] {
			return nil, fmt.Errorf("duplicate subject id %d", s.ID)
		}
		subjectIDs[s.ID] = true
		if err := uniqueIDs(s.Items, func(it model.CoreItem) string { return it.ID }); err != nil {
			return nil, fmt.Errorf("subject %d: %w", s.ID, err)
		}
		c.subjects = append(c.subjects, s.WithProgress())
	}

	taskIDs := make(map[int64]bool)
	for _, t := range f.DailyTasks {
		if taskIDs[t.ID] {
			return nil, fmt.Errorf("duplicate daily task id %d", t.ID)
		}
		taskIDs[t.ID] = true
		if strings.TrimSpace(t.Text) == "" {
			return nil, fmt.Errorf("daily task %d has no text", t.ID)
		}
		c.dailyTasks = append(c.dailyTasks, t)
	}

	return c, nil
}

func uniqueIDs[T any](entries []T, id func(T) string) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		k := id(e)
		if k == "" {
			return fmt.Errorf("entry without id")
		}
		if seen[k] {
			return fmt.Errorf("duplicate id %q", k)
		}
		seen[k] = true
	}
	return nil
}

// Topics returns the seed topics.
func (c *Catalog) Topics() []model.Topic {
	out := make([]model.Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = t.WithProgress()
	}
	return out
}

// Subjects returns the seed core subjects.
func (c *Catalog) Subjects() []model.CoreSubject {
	out := make([]model.CoreSubject, len(c.subjects))
	for i, s := range c.subjects {
		out[i] = s.WithProgress()
	}
	return out
}

// DailyTasks returns the default task set bound to date, all not completed.
func (c *Catalog) DailyTasks(date string) []model.Task {
	out := make([]model.Task, len(c.dailyTasks))
	for i, t := range c.dailyTasks {
		t.Completed = false
		t.Date = date
		out[i] = t
	}
	return out
}

// NewState returns a freshly seeded document evaluated on today.
func (c *Catalog) NewState(today string) model.AppState {
	return model.AppState{
		Topics:            c.Topics(),
		InterviewSubjects: c.Subjects(),
		Streak:            1,
		LastVisit:         today,
		CalendarData: map[string]model.DayRecord{
			today: {Tasks: c.DailyTasks(today), Notes: ""},
		},
	}
}
