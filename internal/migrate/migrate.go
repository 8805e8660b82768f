// Package migrate upgrades persisted tracker documents of any earlier shape
// to the current AppState shape. Shape detection is structural: there is no
// version field, so every rule checks for the presence of the fields it owns.
package migrate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

//go:embed document.schema.json
var schemaJSON string

// ErrCorrupt is returned by Decode for input that is not a JSON object.
// Callers treat it like an absent document.
var ErrCorrupt = errors.New("corrupt tracker document")

// maxRepairPasses bounds how often Decode re-validates after dropping entries.
const maxRepairPasses = 4

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Subject is an interview subject in either shape. Legacy entries carry
// Confidence and no Items; current entries carry Items. Progress is cached
// and recomputed by State.
type Subject struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Progress   float64          `json:"progress"`
	Confidence *float64         `json:"confidence,omitempty"`
	Items      []model.CoreItem `json:"items"`
}

// Legacy reports whether s is in the checklist-less legacy shape.
func (s Subject) Legacy() bool {
	return s.Items == nil
}

// Document is a decoded document that may mix current and legacy fields.
// Nil slices and maps mean the field was absent; an absent streak is 0 and an
// absent lastVisit is "".
type Document struct {
	Topics            []model.Topic              `json:"topics"`
	InterviewSubjects []Subject                  `json:"interviewSubjects"`
	Streak            int                        `json:"streak"`
	LastVisit         string                     `json:"lastVisit"`
	CalendarData      map[string]model.DayRecord `json:"calendarData"`
	DailyTasks        []model.Task               `json:"dailyTasks"`
	Notes             string                     `json:"notes"`

	// Dropped lists the paths of entries removed because they failed validation.
	Dropped []string `json:"-"`
}

// Decode parses raw and validates it against the document schema. An entry
// that fails validation (a task, subtopic, subject, calendar day, or a
// top-level field) is dropped on its own and the rest of the document is kept.
// Only input that is not a JSON object is ErrCorrupt.
func Decode(raw []byte) (*Document, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("loading document schema: %w", err)
	}

	root, err := parseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	stripDerived(root)

	var dropped []string
	for pass := 0; pass < maxRepairPasses; pass++ {
		b, err := json.Marshal(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		result, err := schema.Validate(gojsonschema.NewBytesLoader(b))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		if result.Valid() {
			var doc Document
			if err := json.Unmarshal(b, &doc); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			doc.Dropped = dropped
			return &doc, nil
		}

		removed := 0
		for _, e := range result.Errors() {
			path, ok := dropEntry(root, e.Field())
			if !ok {
				continue
			}
			slog.Warn("dropping invalid tracker document entry", "path", path, "error", e.Description())
			dropped = append(dropped, path)
			removed++
		}
		if removed == 0 {
			break
		}
		compact(root)
	}
	return nil, fmt.Errorf("%w: entries could not be repaired", ErrCorrupt)
}

func parseObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after document")
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return root, nil
}

// stripDerived removes cached topic progress. It is recomputed from the
// subtopics, and a fractional value would not fit the int field.
func stripDerived(root map[string]any) {
	topics, _ := root["topics"].([]any)
	for _, t := range topics {
		if m, ok := t.(map[string]any); ok {
			delete(m, "progress")
		}
	}
}

// removed marks an array element for deletion by compact.
type removed struct{}

// dropEntry removes the innermost entry containing the invalid value at field:
// an array element, a calendar day, or else the top-level field. It reports
// the removed path, or false when the path no longer resolves.
func dropEntry(root map[string]any, field string) (string, bool) {
	if field == "" || field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return "", false
	}
	parts := strings.Split(field, ".")

	parents := make([]any, len(parts))
	cut := 0
	var cur any = root
	for i, p := range parts {
		parents[i] = cur
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[p]
			if !ok {
				return "", false
			}
			if i == 1 && parts[0] == "calendarData" {
				cut = i
			}
			cur = v
		case []any:
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 || n >= len(c) {
				return "", false
			}
			if _, gone := c[n].(removed); gone {
				return "", false
			}
			cut = i
			cur = c[n]
		default:
			return "", false
		}
	}

	switch c := parents[cut].(type) {
	case map[string]any:
		delete(c, parts[cut])
	case []any:
		n, _ := strconv.Atoi(parts[cut])
		c[n] = removed{}
	}
	return strings.Join(parts[:cut+1], "."), true
}

// compact deletes the elements dropEntry marked.
func compact(v any) any {
	switch c := v.(type) {
	case map[string]any:
		for k, e := range c {
			c[k] = compact(e)
		}
	case []any:
		kept := c[:0]
		for _, e := range c {
			if _, gone := e.(removed); !gone {
				kept = append(kept, compact(e))
			}
		}
		return kept
	}
	return v
}

// FromState wraps a current-shape state as a document.
func FromState(s model.AppState) *Document {
	s = s.Clone()
	doc := &Document{
		Topics:       s.Topics,
		Streak:       s.Streak,
		LastVisit:    s.LastVisit,
		CalendarData: s.CalendarData,
		DailyTasks:   s.DailyTasks,
		Notes:        s.Notes,
	}
	if s.InterviewSubjects != nil {
		doc.InterviewSubjects = make([]Subject, len(s.InterviewSubjects))
		for i, sub := range s.InterviewSubjects {
			items := sub.Items
			if items == nil {
				items = []model.CoreItem{}
			}
			doc.InterviewSubjects[i] = Subject{ID: sub.ID, Name: sub.Name, Progress: float64(sub.Progress), Items: items}
		}
	}
	return doc
}

// State converts an upgraded document to the in-memory state. Legacy
// subject fields and the legacy top-level notes and dailyTasks are not part
// of the current shape and are left out; Upgrade must have run first for
// them to have been carried. Cached progress is recomputed.
func (d *Document) State() model.AppState {
	s := model.AppState{
		Streak:       d.Streak,
		LastVisit:    d.LastVisit,
		CalendarData: d.CalendarData,
	}
	if d.Topics != nil {
		s.Topics = make([]model.Topic, len(d.Topics))
		for i, t := range d.Topics {
			s.Topics[i] = t.WithProgress()
		}
	}
	if d.InterviewSubjects != nil {
		s.InterviewSubjects = make([]model.CoreSubject, len(d.InterviewSubjects))
		for i, sub := range d.InterviewSubjects {
			s.InterviewSubjects[i] = model.CoreSubject{
				ID:    sub.ID,
				Name:  sub.Name,
				Items: sub.Items,
			}.WithProgress()
		}
	}
	for k, r := range s.CalendarData {
		if r.Tasks == nil {
			r.Tasks = []model.Task{}
			s.CalendarData[k] = r
		}
	}
	return s.Clone()
}
