package model

import "time"

// Day returns the record stored for key, or an empty view. It never creates a record.
func (s AppState) Day(key string) DayRecord {
	r, ok := s.CalendarData[key]
	if !ok {
		return DayRecord{Tasks: []Task{}}
	}
	return r.Clone()
}

// DayView is a read-only projection of one calendar day.
type DayView struct {
	Date      string
	Weekday   time.Weekday
	Record    DayRecord
	Completed int
	Total     int
	Percent   int
}

// Week returns the seven days, Sunday through Saturday, of the week containing date.
func Week(s AppState, date time.Time) []DayView {
	start := midnight(date).AddDate(0, 0, -int(date.Weekday()))
	return span(s, start, 7)
}

// Month returns every day of the calendar month containing date.
func Month(s AppState, date time.Time) []DayView {
	d := midnight(date)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	n := 0
	for day := start; day.Month() == start.Month(); day = day.AddDate(0, 0, 1) {
		n++
	}
	return span(s, start, n)
}

func span(s AppState, start time.Time, n int) []DayView {
	views := make([]DayView, 0, n)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i)
		key := DateKey(day)
		rec := s.Day(key)
		completed, total, pct := DayCompletion(rec)
		views = append(views, DayView{
			Date:      key,
			Weekday:   day.Weekday(),
			Record:    rec,
			Completed: completed,
			Total:     total,
			Percent:   pct,
		})
	}
	return views
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
