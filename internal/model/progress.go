package model

import "math"

// Percentage returns round(100 * completed / total), or 0 when total is 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// CompletedSubtopics counts completed subtopics of t.
func (t Topic) CompletedSubtopics() int {
	n := 0
	for _, st := range t.Subtopics {
		if st.Completed {
			n++
		}
	}
	return n
}

// WithProgress returns a copy of t with Progress recomputed from its subtopics.
func (t Topic) WithProgress() Topic {
	t = t.Clone()
	t.Progress = Percentage(t.CompletedSubtopics(), len(t.Subtopics))
	return t
}

// CompletedItems counts completed items of s.
func (s CoreSubject) CompletedItems() int {
	n := 0
	for _, it := range s.Items {
		if it.Completed {
			n++
		}
	}
	return n
}

// WithProgress returns a copy of s with Progress recomputed from its items.
func (s CoreSubject) WithProgress() CoreSubject {
	s = s.Clone()
	s.Progress = Percentage(s.CompletedItems(), len(s.Items))
	return s
}

// Summary holds the derived completion figures of a state. It is never persisted.
type Summary struct {
	CompletedSubtopics int `json:"completedSubtopics"`
	TotalSubtopics     int `json:"totalSubtopics"`
	CompletedItems     int `json:"completedItems"`
	TotalItems         int `json:"totalItems"`
	DSA                int `json:"dsa"`
	Core               int `json:"core"`
	Overall            int `json:"overall"`
}

// Summarize computes DSA, core-subject and combined completion percentages.
// The overall figure weighs every checklist entry equally.
func Summarize(s AppState) Summary {
	var sum Summary
	for _, t := range s.Topics {
		sum.CompletedSubtopics += t.CompletedSubtopics()
		sum.TotalSubtopics += len(t.Subtopics)
	}
	for _, sub := range s.InterviewSubjects {
		sum.CompletedItems += sub.CompletedItems()
		sum.TotalItems += len(sub.Items)
	}
	sum.DSA = Percentage(sum.CompletedSubtopics, sum.TotalSubtopics)
	sum.Core = Percentage(sum.CompletedItems, sum.TotalItems)
	sum.Overall = Percentage(sum.CompletedSubtopics+sum.CompletedItems, sum.TotalSubtopics+sum.TotalItems)
	return sum
}

// DayCompletion reports how many of a day's tasks are completed.
func DayCompletion(r DayRecord) (completed, total, percent int) {
	for _, t := range r.Tasks {
		if t.Completed {
			completed++
		}
	}
	total = len(r.Tasks)
	return completed, total, Percentage(completed, total)
}

// AllCompleted reports whether r has at least one task and every task is completed.
func (r DayRecord) AllCompleted() bool {
	if len(r.Tasks) == 0 {
		return false
	}
	for _, t := range r.Tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}
