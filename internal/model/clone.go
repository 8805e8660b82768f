package model

// Clone returns a copy of the topic that shares no slices with t.
func (t Topic) Clone() Topic {
	t.Subtopics = append([]Subtopic(nil), t.Subtopics...)
	return t
}

// Clone returns a copy of the subject that shares no slices with s.
func (s CoreSubject) Clone() CoreSubject {
	s.Items = append([]CoreItem(nil), s.Items...)
	return s
}

// Clone returns a copy of the record that shares no slices with r.
// A nil task list becomes an empty one.
func (r DayRecord) Clone() DayRecord {
	tasks := make([]Task, len(r.Tasks))
	copy(tasks, r.Tasks)
	r.Tasks = tasks
	return r
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := s

	if s.Topics != nil {
		out.Topics = make([]Topic, len(s.Topics))
		for i, t := range s.Topics {
			out.Topics[i] = t.Clone()
		}
	}
	if s.InterviewSubjects != nil {
		out.InterviewSubjects = make([]CoreSubject, len(s.InterviewSubjects))
		for i, sub := range s.InterviewSubjects {
			out.InterviewSubjects[i] = sub.Clone()
		}
	}
	if s.CalendarData != nil {
		out.CalendarData = make(map[string]DayRecord, len(s.CalendarData))
		for k, r := range s.CalendarData {
			out.CalendarData[k] = r.Clone()
		}
	}
	if s.DailyTasks != nil {
		out.DailyTasks = append([]Task(nil), s.DailyTasks...)
	}
	return out
}
