package migrate_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-tracker/internal/curriculum"
	"github.com/p-n-ai/pai-tracker/internal/migrate"
	"github.com/p-n-ai/pai-tracker/internal/model"
)

const today = "2024-06-02"

// currentDoc is a document in the current shape with user data in every field.
func currentDoc(t *testing.T) []byte {
	t.Helper()
	s := curriculum.Default().NewState("2024-06-01")
	s.Topics[0].Subtopics[0].Completed = true
	s.Topics[0] = s.Topics[0].WithProgress()
	s.InterviewSubjects[1].Items[2].Completed = true
	s.InterviewSubjects[1] = s.InterviewSubjects[1].WithProgress()
	s.Streak = 4
	s.CalendarData["2024-05-31"] = model.DayRecord{
		Tasks: []model.Task{{ID: 1717100000000, Text: "Mock interview", Completed: true, Date: "2024-05-31"}},
		Notes: "went well",
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func decode(t *testing.T, raw []byte) *migrate.Document {
	t.Helper()
	doc, err := migrate.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return doc
}

func TestDecode_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated", `{"topics": [`},
		{"not json", `hello`},
		{"array", `[]`},
		{"string", `"dev-tracker"`},
		{"null", `null`},
		{"trailing data", `{"streak": 1} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := migrate.Decode([]byte(tt.raw))
			if !errors.Is(err, migrate.ErrCorrupt) {
				t.Errorf("Decode() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecode_AbsentFieldsDefault(t *testing.T) {
	doc := decode(t, []byte(`{"topics": [{"id": 1, "name": "Sorting", "subtopics": [{"id": "s1", "completed": true}]}]}`))

	if doc.Streak != 0 || doc.LastVisit != "" {
		t.Errorf("streak/lastVisit = %d/%q, want zero values", doc.Streak, doc.LastVisit)
	}
	if doc.CalendarData != nil || doc.InterviewSubjects != nil {
		t.Error("absent fields decoded as present")
	}
	if len(doc.Topics) != 1 || !doc.Topics[0].Subtopics[0].Completed {
		t.Errorf("topics = %+v", doc.Topics)
	}
	if len(doc.Dropped) != 0 {
		t.Errorf("Dropped = %v, want none", doc.Dropped)
	}
}

func TestDecode_DropsOnlyInvalidEntries(t *testing.T) {
	const topics = `"topics": [{"id": 1, "name": "Sorting", "subtopics": [{"id": "s1", "completed": true}]}]`

	tests := []struct {
		name        string
		raw         string
		wantDropped []string
		check       func(t *testing.T, doc *migrate.Document)
	}{
		{
			name:        "negative streak",
			raw:         `{` + topics + `, "streak": -1, "lastVisit": "2024-06-01"}`,
			wantDropped: []string{"streak"},
			check: func(t *testing.T, doc *migrate.Document) {
				if doc.Streak != 0 || doc.LastVisit != "2024-06-01" {
					t.Errorf("streak/lastVisit = %d/%s", doc.Streak, doc.LastVisit)
				}
			},
		},
		{
			name:        "calendar of the wrong shape",
			raw:         `{` + topics + `, "streak": 2, "calendarData": []}`,
			wantDropped: []string{"calendarData"},
			check: func(t *testing.T, doc *migrate.Document) {
				if doc.CalendarData != nil || doc.Streak != 2 {
					t.Errorf("calendar = %v, streak = %d", doc.CalendarData, doc.Streak)
				}
			},
		},
		{
			name: "task with a string id",
			raw: `{` + topics + `, "calendarData": {"2024-06-01": {"tasks": [
				{"id": "x", "text": "bad"}, {"id": 2, "text": "good", "completed": true}], "notes": "kept"}}}`,
			wantDropped: []string{"calendarData.2024-06-01.tasks.0"},
			check: func(t *testing.T, doc *migrate.Document) {
				rec := doc.CalendarData["2024-06-01"]
				if len(rec.Tasks) != 1 || rec.Tasks[0].ID != 2 || rec.Notes != "kept" {
					t.Errorf("day = %+v, want the valid task and notes kept", rec)
				}
			},
		},
		{
			name: "calendar day that is not an object",
			raw: `{` + topics + `, "calendarData": {"2024-05-31": 5,
				"2024-06-01": {"tasks": [{"id": 1, "text": "ok"}], "notes": ""}}}`,
			wantDropped: []string{"calendarData.2024-05-31"},
			check: func(t *testing.T, doc *migrate.Document) {
				if _, ok := doc.CalendarData["2024-05-31"]; ok || len(doc.CalendarData) != 1 {
					t.Errorf("calendar = %v", doc.CalendarData)
				}
			},
		},
		{
			name: "two bad subtopics",
			raw: `{"topics": [{"id": 1, "name": "Sorting", "subtopics": [
				{"id": 7}, {"id": "s1", "completed": true}, {"name": "no id"}]}]}`,
			wantDropped: []string{"topics.0.subtopics.0", "topics.0.subtopics.2"},
			check: func(t *testing.T, doc *migrate.Document) {
				subs := doc.Topics[0].Subtopics
				if len(subs) != 1 || subs[0].ID != "s1" || !subs[0].Completed {
					t.Errorf("subtopics = %+v", subs)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, []byte(tt.raw))
			got := slices.Clone(doc.Dropped)
			slices.Sort(got)
			if !slices.Equal(got, tt.wantDropped) {
				t.Errorf("Dropped = %v, want %v", got, tt.wantDropped)
			}
			if len(doc.Topics) != 1 || doc.Topics[0].Name != "Sorting" {
				t.Errorf("topics = %+v, want the valid topic kept", doc.Topics)
			}
			tt.check(t, doc)
		})
	}
}

func TestDecode_FractionalLegacyValues(t *testing.T) {
	raw := []byte(`{
		"topics": [{"id": 1, "name": "Sorting", "progress": 33.3,
			"subtopics": [{"id": "s1", "completed": true}, {"id": "s2"}, {"id": "s3"}]}],
		"interviewSubjects": [{"id": 1, "progress": 20.5, "confidence": 2.5}],
		"streak": 3,
		"lastVisit": "2024-06-01"
	}`)
	doc := decode(t, raw)

	if !doc.InterviewSubjects[0].Legacy() {
		t.Error("fractional legacy subject not recognized as legacy")
	}
	migrate.Upgrade(doc, today, curriculum.Default())
	s := doc.State()
	if got := s.Topics[0].Progress; got != 33 {
		t.Errorf("topic progress = %d, want 33 recomputed", got)
	}
	if diff := cmp.Diff(curriculum.Default().Subjects(), s.InterviewSubjects); diff != "" {
		t.Errorf("subjects (-want +got):\n%s", diff)
	}
}

func TestState_RecomputesStaleProgress(t *testing.T) {
	doc := &migrate.Document{
		Topics: []model.Topic{{ID: 1, Name: "Sorting", Progress: 90, Subtopics: []model.Subtopic{
			{ID: "s1", Completed: true}, {ID: "s2"}, {ID: "s3"}, {ID: "s4"},
		}}},
		InterviewSubjects: []migrate.Subject{{ID: 1, Name: "OS", Progress: 10, Items: []model.CoreItem{
			{ID: "os1", Completed: true}, {ID: "os2", Completed: true},
		}}},
	}

	s := doc.State()
	if got := s.Topics[0].Progress; got != 25 {
		t.Errorf("topic progress = %d, want 25", got)
	}
	if got := s.InterviewSubjects[0].Progress; got != 100 {
		t.Errorf("subject progress = %d, want 100", got)
	}
}

func TestUpgrade_CurrentDocumentUnchanged(t *testing.T) {
	raw := currentDoc(t)
	doc := decode(t, raw)

	applied := migrate.Upgrade(doc, today, curriculum.Default())
	if len(applied) != 0 {
		t.Errorf("Upgrade() applied %v to a current document", applied)
	}

	var want model.AppState
	if err := json.Unmarshal(raw, &want); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, doc.State()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureCalendar_OnlyCalendarChanges(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal(currentDoc(t), &m); err != nil {
		t.Fatal(err)
	}
	delete(m, "calendarData")
	raw, _ := json.Marshal(m)

	before := decode(t, raw)
	doc := decode(t, raw)

	applied := migrate.Upgrade(doc, today, curriculum.Default())
	if !slices.Equal(applied, []string{migrate.RuleCalendar}) {
		t.Fatalf("applied = %v, want [calendar]", applied)
	}
	if doc.CalendarData == nil || len(doc.CalendarData) != 0 {
		t.Errorf("CalendarData = %v, want empty map", doc.CalendarData)
	}

	before.CalendarData = map[string]model.DayRecord{}
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Errorf("other fields changed (-want +got):\n%s", diff)
	}
}

func TestReplaceLegacySubjects(t *testing.T) {
	raw := []byte(`{
		"topics": [{"id": 1, "name": "Sorting", "slug": "sorting", "category": "DSA", "progress": 0, "subtopics": []}],
		"interviewSubjects": [{"id": 1, "progress": 20, "confidence": 2}],
		"streak": 2,
		"lastVisit": "2024-06-01",
		"calendarData": {}
	}`)
	before := decode(t, raw)
	doc := decode(t, raw)

	applied := migrate.Upgrade(doc, today, curriculum.Default())
	if !slices.Equal(applied, []string{migrate.RuleSubjects}) {
		t.Fatalf("applied = %v, want [subjects]", applied)
	}

	got := doc.State().InterviewSubjects
	want := curriculum.Default().Subjects()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subjects (-want +got):\n%s", diff)
	}
	if len(got) != 4 {
		t.Fatalf("len(subjects) = %d, want 4", len(got))
	}
	for _, s := range got {
		if len(s.Items) == 0 || s.Progress != 0 {
			t.Errorf("subject %q: items=%d progress=%d, want seeded checklist at 0%%", s.Name, len(s.Items), s.Progress)
		}
	}

	before.InterviewSubjects = doc.InterviewSubjects
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Errorf("other fields changed (-want +got):\n%s", diff)
	}
}

func TestReplaceLegacySubjects_MixedShapes(t *testing.T) {
	doc := &migrate.Document{
		InterviewSubjects: []migrate.Subject{
			{ID: 1, Name: "OS", Items: []model.CoreItem{{ID: "os1", Name: "Processes", Completed: true}}},
			{ID: 2, Name: "DBMS", Progress: 40},
		},
	}
	if !migrate.ReplaceLegacySubjects(doc, curriculum.Default()) {
		t.Fatal("ReplaceLegacySubjects() = false, want true for a mixed list")
	}
	for _, s := range doc.InterviewSubjects {
		if s.Legacy() {
			t.Errorf("subject %d still legacy", s.ID)
		}
	}
}

func TestCarryLegacyNotes(t *testing.T) {
	legacyTasks := []model.Task{
		{ID: 1, Text: "Solve 1 LeetCode Easy", Completed: true, Date: "2024-05-20"},
		{ID: 2, Text: "Read 1 System Design article", Date: "2024-05-20"},
	}

	tests := []struct {
		name      string
		doc       migrate.Document
		wantApply bool
		wantDay   model.DayRecord
	}{
		{
			name:      "no legacy note",
			doc:       migrate.Document{CalendarData: map[string]model.DayRecord{}},
			wantApply: false,
		},
		{
			name: "keeps today's tasks",
			doc: migrate.Document{
				Notes:      "remember DP",
				DailyTasks: legacyTasks,
				CalendarData: map[string]model.DayRecord{
					today: {Tasks: []model.Task{{ID: 9, Text: "Existing", Date: today}}},
				},
			},
			wantApply: true,
			wantDay:   model.DayRecord{Tasks: []model.Task{{ID: 9, Text: "Existing", Date: today}}, Notes: "remember DP"},
		},
		{
			name: "falls back to legacy tasks",
			doc: migrate.Document{
				Notes:        "remember DP",
				DailyTasks:   legacyTasks,
				CalendarData: map[string]model.DayRecord{},
			},
			wantApply: true,
			wantDay: model.DayRecord{
				Tasks: []model.Task{
					{ID: 1, Text: "Solve 1 LeetCode Easy", Completed: true, Date: today},
					{ID: 2, Text: "Read 1 System Design article", Date: today},
				},
				Notes: "remember DP",
			},
		},
		{
			name: "today already has notes",
			doc: migrate.Document{
				Notes:        "legacy",
				CalendarData: map[string]model.DayRecord{today: {Tasks: []model.Task{}, Notes: "fresh"}},
			},
			wantApply: false,
			wantDay:   model.DayRecord{Tasks: []model.Task{}, Notes: "fresh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc
			if got := migrate.CarryLegacyNotes(&doc, today); got != tt.wantApply {
				t.Fatalf("CarryLegacyNotes() = %v, want %v", got, tt.wantApply)
			}
			if !tt.wantApply {
				return
			}
			if diff := cmp.Diff(tt.wantDay, doc.CalendarData[today]); diff != "" {
				t.Errorf("today (-want +got):\n%s", diff)
			}
			if doc.Notes != tt.doc.Notes || len(doc.DailyTasks) != len(tt.doc.DailyTasks) {
				t.Errorf("legacy fields changed: notes=%q dailyTasks=%v", doc.Notes, doc.DailyTasks)
			}
			if s := doc.State(); s.Notes != "" || s.DailyTasks != nil {
				t.Errorf("State() kept legacy fields: notes=%q dailyTasks=%v", s.Notes, s.DailyTasks)
			}
			if migrate.CarryLegacyNotes(&doc, today) {
				t.Error("second CarryLegacyNotes() applied again")
			}
		})
	}
}

func TestUpgrade_Idempotent(t *testing.T) {
	docs := map[string]string{
		"oldest": `{
			"topics": [{"id": 1, "name": "Sorting", "slug": "sorting", "category": "DSA", "progress": 50,
				"subtopics": [{"id": "s1", "name": "Bubble", "completed": true}, {"id": "s2", "name": "Merge", "completed": false}]}],
			"dailyTasks": [{"id": 1, "text": "Solve 1 LeetCode Easy", "completed": false, "date": "2024-05-01"}],
			"interviewSubjects": [{"id": 1, "name": "Operating Systems", "progress": 20, "confidence": 2}],
			"streak": 5,
			"lastVisit": "2024-05-01",
			"notes": "legacy note"
		}`,
		"no calendar only": `{"topics": [], "interviewSubjects": [], "streak": 1, "lastVisit": "2024-06-01"}`,
	}

	for name, raw := range docs {
		t.Run(name, func(t *testing.T) {
			doc := decode(t, []byte(raw))
			migrate.Upgrade(doc, today, curriculum.Default())
			once := doc.State()

			again := migrate.FromState(once)
			if applied := migrate.Upgrade(again, today, curriculum.Default()); len(applied) != 0 {
				t.Errorf("second Upgrade() applied %v", applied)
			}
			if diff := cmp.Diff(once, again.State()); diff != "" {
				t.Errorf("second upgrade changed state (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestUpgrade_LegacyScenario(t *testing.T) {
	raw := []byte(`{
		"topics": [{"id": 1, "name": "Sorting", "slug": "sorting", "category": "DSA", "progress": 50,
			"subtopics": [{"id": "s1", "name": "Bubble", "completed": true}, {"id": "s2", "name": "Merge", "completed": false}]}],
		"interviewSubjects": [{"id": 1, "progress": 20, "confidence": 2}],
		"streak": 3,
		"lastVisit": "2024-06-01",
		"notes": "focus on graphs"
	}`)
	doc := decode(t, raw)
	applied := migrate.Upgrade(doc, today, curriculum.Default())

	want := []string{migrate.RuleCalendar, migrate.RuleSubjects, migrate.RuleLegacyNotes}
	if !slices.Equal(applied, want) {
		t.Errorf("applied = %v, want %v", applied, want)
	}

	s := doc.State()
	if s.Topics[0].Progress != 50 || !s.Topics[0].Subtopics[0].Completed {
		t.Errorf("topics were modified: %+v", s.Topics[0])
	}
	if s.Streak != 3 || s.LastVisit != "2024-06-01" {
		t.Errorf("streak/lastVisit = %d/%s, want 3/2024-06-01", s.Streak, s.LastVisit)
	}
	if got := s.CalendarData[today].Notes; got != "focus on graphs" {
		t.Errorf("today's notes = %q, want carried legacy note", got)
	}
	if len(s.InterviewSubjects) != 4 {
		t.Errorf("len(interviewSubjects) = %d, want 4", len(s.InterviewSubjects))
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"notes", "dailyTasks"} {
		if _, ok := m[field]; ok {
			t.Errorf("upgraded document still serializes legacy field %q", field)
		}
	}
	if subjects, ok := m["interviewSubjects"].([]any); ok {
		if _, ok := subjects[0].(map[string]any)["confidence"]; ok {
			t.Error("upgraded subject still carries confidence")
		}
	}
}
