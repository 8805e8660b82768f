package tracker

import (
	"context"
	"strings"

	"github.com/p-n-ai/pai-tracker/internal/events"
	"github.com/p-n-ai/pai-tracker/internal/model"
)

// DayUpdate is a partial DayRecord. Nil fields are left unchanged.
type DayUpdate struct {
	Tasks *[]model.Task
	Notes *string
}

// ToggleSubtopic flips a subtopic and recomputes its topic's progress.
// Unknown ids leave the state unchanged.
func (t *Tracker) ToggleSubtopic(ctx context.Context, topicID int, subtopicID string) error {
	return t.update(ctx, func(s *model.AppState) {
		for i, topic := range s.Topics {
			if topic.ID != topicID {
				continue
			}
			for j, st := range topic.Subtopics {
				if st.ID == subtopicID {
					topic.Subtopics[j].Completed = !st.Completed
				}
			}
			s.Topics[i] = topic.WithProgress()
		}
	})
}

// ToggleCoreItem flips a core-subject item and recomputes the subject's progress.
func (t *Tracker) ToggleCoreItem(ctx context.Context, subjectID int, itemID string) error {
	return t.update(ctx, func(s *model.AppState) {
		for i, sub := range s.InterviewSubjects {
			if sub.ID != subjectID {
				continue
			}
			for j, it := range sub.Items {
				if it.ID == itemID {
					sub.Items[j].Completed = !it.Completed
				}
			}
			s.InterviewSubjects[i] = sub.WithProgress()
		}
	})
}

// GetDayData returns the record for date, or an empty one. It never creates a record.
func (t *Tracker) GetDayData(date string) (model.DayRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return model.DayRecord{}, ErrNotLoaded
	}
	return t.state.Day(date), nil
}

// UpdateDayData merges u into the record for date, creating it if absent.
// Malformed date keys are ignored.
func (t *Tracker) UpdateDayData(ctx context.Context, date string, u DayUpdate) error {
	return t.update(ctx, func(s *model.AppState) {
		if !validDate(date) {
			return
		}
		rec := s.Day(date)
		if u.Tasks != nil {
			tasks := make([]model.Task, len(*u.Tasks))
			for i, task := range *u.Tasks {
				if task.Date == "" {
					task.Date = date
				}
				tasks[i] = task
			}
			rec.Tasks = tasks
		}
		if u.Notes != nil {
			rec.Notes = *u.Notes
		}
		putDay(s, date, rec)
	})
}

// UpdateNotes replaces the notes of date.
func (t *Tracker) UpdateNotes(ctx context.Context, date, notes string) error {
	return t.UpdateDayData(ctx, date, DayUpdate{Notes: &notes})
}

// AddTask appends a new incomplete task to date and returns its id.
// Blank text is rejected and yields id 0 without touching the state.
func (t *Tracker) AddTask(ctx context.Context, date, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" || !validDate(date) {
		if t.IsLoading() {
			return 0, ErrNotLoaded
		}
		return 0, nil
	}

	var id int64
	err := t.update(ctx, func(s *model.AppState) {
		rec := s.Day(date)
		id = nextTaskID(rec.Tasks, t.now().UnixMilli())
		rec.Tasks = append(rec.Tasks, model.Task{ID: id, Text: text, Completed: false, Date: date})
		putDay(s, date, rec)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ToggleDailyTask flips a task of date. Unknown days and ids are no-ops.
func (t *Tracker) ToggleDailyTask(ctx context.Context, date string, taskID int64) error {
	return t.update(ctx, func(s *model.AppState) {
		rec, ok := s.CalendarData[date]
		if !ok {
			return
		}
		for i, task := range rec.Tasks {
			if task.ID == taskID {
				rec.Tasks[i].Completed = !task.Completed
			}
		}
		s.CalendarData[date] = rec
	})
}

// RemoveTask deletes a task from date. The day record itself is kept.
func (t *Tracker) RemoveTask(ctx context.Context, date string, taskID int64) error {
	return t.update(ctx, func(s *model.AppState) {
		rec, ok := s.CalendarData[date]
		if !ok {
			return
		}
		kept := make([]model.Task, 0, len(rec.Tasks))
		for _, task := range rec.Tasks {
			if task.ID != taskID {
				kept = append(kept, task)
			}
		}
		rec.Tasks = kept
		s.CalendarData[date] = rec
	})
}

// ResetProgress replaces the whole state with a freshly seeded one, history included.
func (t *Tracker) ResetProgress(ctx context.Context) error {
	today := t.Today()
	err := t.update(ctx, func(s *model.AppState) {
		*s = t.catalog.NewState(today)
	})
	if err == nil {
		t.emit(events.ProgressReset, map[string]any{"today": today})
	}
	return err
}

func putDay(s *model.AppState, date string, rec model.DayRecord) {
	if s.CalendarData == nil {
		s.CalendarData = map[string]model.DayRecord{}
	}
	s.CalendarData[date] = rec
}

// nextTaskID returns candidate, or one more than the largest id in tasks if
// candidate would collide.
func nextTaskID(tasks []model.Task, candidate int64) int64 {
	for _, task := range tasks {
		if task.ID >= candidate {
			candidate = task.ID + 1
		}
	}
	return candidate
}

func validDate(date string) bool {
	_, err := model.ParseDateKey(date, nil)
	return err == nil
}
