package tracker

import (
	"time"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

// Summary returns the DSA, core-subject and overall completion percentages.
func (t *Tracker) Summary() (model.Summary, error) {
	s, ok := t.State()
	if !ok {
		return model.Summary{}, ErrNotLoaded
	}
	return model.Summarize(s), nil
}

// Week returns the Sunday-to-Saturday week containing date.
func (t *Tracker) Week(date string) ([]model.DayView, error) {
	return t.span(date, model.Week)
}

// Month returns every day of the month containing date.
func (t *Tracker) Month(date string) ([]model.DayView, error) {
	return t.span(date, model.Month)
}

func (t *Tracker) span(date string, view func(model.AppState, time.Time) []model.DayView) ([]model.DayView, error) {
	s, ok := t.State()
	if !ok {
		return nil, ErrNotLoaded
	}
	d, err := model.ParseDateKey(date, t.loc)
	if err != nil {
		return nil, err
	}
	return view(s, d), nil
}
