package migrate

import "github.com/p-n-ai/pai-tracker/internal/model"

// Rule names, reported by Upgrade in application order.
const (
	RuleCalendar    = "calendar"
	RuleSubjects    = "subjects"
	RuleLegacyNotes = "legacy_notes"
)

// Seeds supplies the current catalog for destructive upgrades.
type Seeds interface {
	Subjects() []model.CoreSubject
}

// Upgrade applies every rule in order and returns the names of those that
// changed d. Upgrading an already current document changes nothing.
func Upgrade(d *Document, today string, seeds Seeds) []string {
	var applied []string
	if EnsureCalendar(d) {
		applied = append(applied, RuleCalendar)
	}
	if ReplaceLegacySubjects(d, seeds) {
		applied = append(applied, RuleSubjects)
	}
	if CarryLegacyNotes(d, today) {
		applied = append(applied, RuleLegacyNotes)
	}
	// Topics have no legacy shape and pass through untouched.
	return applied
}

// EnsureCalendar initializes an absent calendar to an empty mapping.
func EnsureCalendar(d *Document) bool {
	if d.CalendarData != nil {
		return false
	}
	d.CalendarData = map[string]model.DayRecord{}
	return true
}

// ReplaceLegacySubjects replaces the whole subject list with the seed catalog
// when it is absent or any entry lacks a checklist. Legacy progress and
// confidence values are discarded: the two catalogs share no items.
func ReplaceLegacySubjects(d *Document, seeds Seeds) bool {
	legacy := d.InterviewSubjects == nil
	for _, s := range d.InterviewSubjects {
		if s.Legacy() {
			legacy = true
			break
		}
	}
	if !legacy {
		return false
	}

	subjects := seeds.Subjects()
	d.InterviewSubjects = make([]Subject, len(subjects))
	for i, s := range subjects {
		d.InterviewSubjects[i] = Subject{ID: s.ID, Name: s.Name, Progress: float64(s.Progress), Items: s.Items}
	}
	return true
}

// CarryLegacyNotes copies the legacy top-level note into today's record when
// that record has no notes of its own. Tasks already on today's record are
// kept; an empty record falls back to the legacy top-level task list, rebound
// to today. The legacy fields themselves are left in place; State omits them,
// so they are not carried into later days.
func CarryLegacyNotes(d *Document, today string) bool {
	if d.Notes == "" {
		return false
	}
	if d.CalendarData == nil {
		d.CalendarData = map[string]model.DayRecord{}
	}

	rec := d.CalendarData[today].Clone()
	if rec.Notes != "" {
		return false
	}
	rec.Notes = d.Notes
	if len(rec.Tasks) == 0 && len(d.DailyTasks) > 0 {
		for _, t := range d.DailyTasks {
			t.Date = today
			rec.Tasks = append(rec.Tasks, t)
		}
	}
	d.CalendarData[today] = rec
	return true
}
