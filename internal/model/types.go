// Package model defines the tracked progress document and the pure computations over it.
package model

import (
	"fmt"
	"time"
)

// DateLayout is the layout of a date key (yyyy-MM-dd).
const DateLayout = "2006-01-02"

// Subtopic is a single checklist entry of a Topic.
type Subtopic struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Completed bool   `json:"completed" yaml:"completed,omitempty"`
}

// Topic is an algorithmic topic with an ordered subtopic checklist.
// Progress is derived from Subtopics and is never edited directly.
type Topic struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Slug      string     `json:"slug" yaml:"slug"`
	Category  string     `json:"category" yaml:"category"`
	Progress  int        `json:"progress" yaml:"-"`
	Subtopics []Subtopic `json:"subtopics" yaml:"subtopics"`
}

// CoreItem is a checklist entry of a CoreSubject.
type CoreItem struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Completed bool   `json:"completed" yaml:"completed,omitempty"`
}

// CoreSubject is a core knowledge area (operating systems, networks, ...) tracked as a checklist.
type CoreSubject struct {
	ID       int        `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Progress int        `json:"progress" yaml:"-"`
	Items    []CoreItem `json:"items" yaml:"items"`
}

// Task is a scheduled task owned by one DayRecord.
type Task struct {
	ID        int64  `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed,omitempty"`
	Date      string `json:"date" yaml:"-"`
}

// DayRecord holds the tasks and free-text notes of one calendar day.
type DayRecord struct {
	Tasks []Task `json:"tasks"`
	Notes string `json:"notes"`
}

// AppState is the root document. It is read and written as one unit.
type AppState struct {
	Topics            []Topic              `json:"topics"`
	InterviewSubjects []CoreSubject        `json:"interviewSubjects"`
	Streak            int                  `json:"streak"`
	LastVisit         string               `json:"lastVisit"`
	CalendarData      map[string]DayRecord `json:"calendarData"`

	// Legacy top-level fields, kept only so older documents survive a round trip.
	DailyTasks []Task `json:"dailyTasks,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// DateKey formats t as a date key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a date key as midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// AddDays returns the date key n calendar days after key.
func AddDays(key string, n int) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return DateKey(t.AddDate(0, 0, n)), nil
}
