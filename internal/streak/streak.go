// Package streak evaluates the day boundary on load: it advances or resets
// the streak and seeds the record of a newly reached day. Evaluation depends
// only on calendar-date identity, never on elapsed hours.
package streak

import (
	"fmt"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

// SeedFunc returns the default tasks bound to a date.
type SeedFunc func(date string) []model.Task

// Outcome describes what an evaluation did.
type Outcome struct {
	Rolled    bool   // the day changed since the last visit
	Continued bool   // yesterday was fully completed and the streak grew
	Seeded    bool   // today's record was created
	Previous  string // lastVisit before evaluation
	Streak    int
}

// Evaluate applies the day boundary for today to s and returns the new state.
// s is not modified. Only the single day before today is inspected, however
// long the user was away.
func Evaluate(s model.AppState, today string, seed SeedFunc) (model.AppState, Outcome, error) {
	out := Outcome{Previous: s.LastVisit, Streak: s.Streak}
	if s.LastVisit == today {
		return s, out, nil
	}

	yesterday, err := model.AddDays(today, -1)
	if err != nil {
		return s, out, fmt.Errorf("evaluating day boundary: %w", err)
	}

	next := s.Clone()
	if next.CalendarData == nil {
		next.CalendarData = map[string]model.DayRecord{}
	}

	if rec, ok := next.CalendarData[yesterday]; ok && rec.AllCompleted() {
		next.Streak++
		out.Continued = true
	} else {
		next.Streak = 1
	}

	if _, ok := next.CalendarData[today]; !ok {
		var tasks []model.Task
		if seed != nil {
			tasks = seed(today)
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		next.CalendarData[today] = model.DayRecord{Tasks: tasks, Notes: ""}
		out.Seeded = true
	}

	next.LastVisit = today
	out.Rolled = true
	out.Streak = next.Streak
	return next, out, nil
}
