// Package tracker holds the in-memory progress state of one session. Load
// reads, migrates and evaluates the persisted document; every mutation builds
// a new state from a copy and writes it back before returning.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/curriculum"
	"github.com/p-n-ai/pai-tracker/internal/events"
	"github.com/p-n-ai/pai-tracker/internal/migrate"
	"github.com/p-n-ai/pai-tracker/internal/model"
	"github.com/p-n-ai/pai-tracker/internal/storage"
	"github.com/p-n-ai/pai-tracker/internal/streak"
)

// ErrNotLoaded is returned by operations called before Load succeeded.
var ErrNotLoaded = errors.New("tracker state not loaded")

// Config holds dependencies for a tracker session.
type Config struct {
	Store    storage.DocumentStore
	Catalog  *curriculum.Catalog // default: built-in catalog
	Events   events.Logger       // default: no-op
	Now      func() time.Time    // default: time.Now
	Location *time.Location      // default: time.Local
	Profile  string              // subject of emitted events
}

// Tracker is the state holder of one session.
type Tracker struct {
	mu      sync.Mutex
	store   storage.DocumentStore
	catalog *curriculum.Catalog
	events  events.Logger
	now     func() time.Time
	loc     *time.Location
	profile string
	state   *model.AppState
}

// New creates a tracker. State is unavailable until Load returns.
func New(cfg Config) *Tracker {
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = curriculum.Default()
	}
	logger := cfg.Events
	if logger == nil {
		logger = events.NopLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "default"
	}
	return &Tracker{
		store:   store,
		catalog: catalog,
		events:  logger,
		now:     now,
		loc:     loc,
		profile: profile,
	}
}

// Today returns the date key of the current calendar day.
func (t *Tracker) Today() string {
	return model.DateKey(t.now().In(t.loc))
}

// IsLoading reports whether the state is not yet available.
func (t *Tracker) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == nil
}

// State returns a copy of the current state. ok is false before Load.
func (t *Tracker) State() (s model.AppState, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return model.AppState{}, false
	}
	return t.state.Clone(), true
}

// Load reads the persisted document, upgrades it to the current shape and
// evaluates the day boundary. A missing or unreadable document starts a fresh
// state. Only a failing store read is returned as an error.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, ok, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading tracker state: %w", err)
	}

	today := t.Today()

	var doc *migrate.Document
	if ok {
		doc, err = migrate.Decode(raw)
		if err != nil {
			slog.Warn("discarding unreadable tracker document", "bytes", len(raw), "error", err)
		}
	}

	var next model.AppState
	if doc == nil {
		next = t.catalog.NewState(today)
		slog.Info("tracker state initialized", "today", today)
		t.emit(events.StateInitialized, map[string]any{"today": today})
	} else {
		applied := migrate.Upgrade(doc, today, t.catalog)
		if len(applied) > 0 {
			slog.Info("tracker document upgraded", "rules", applied)
		}

		var out streak.Outcome
		next, out, err = streak.Evaluate(doc.State(), today, t.catalog.DailyTasks)
		if err != nil {
			return err
		}
		if out.Rolled {
			slog.Info("day rolled over",
				"previous", out.Previous,
				"today", today,
				"streak", out.Streak,
				"continued", out.Continued,
			)
			t.emit(events.DayRolledOver, map[string]any{
				"previous":  out.Previous,
				"today":     today,
				"streak":    out.Streak,
				"continued": out.Continued,
			})
		}
		t.emit(events.StateLoaded, map[string]any{"migrations": applied, "streak": next.Streak})
	}

	t.state = &next
	t.persist(ctx, next)
	return nil
}

// update applies fn to a copy of the state, installs the copy and persists it.
func (t *Tracker) update(ctx context.Context, fn func(s *model.AppState)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return ErrNotLoaded
	}
	next := t.state.Clone()
	fn(&next)
	t.state = &next
	t.persist(ctx, next)
	return nil
}

// persist writes s. Failures are reported and the in-memory state stays authoritative.
func (t *Tracker) persist(ctx context.Context, s model.AppState) {
	raw, err := json.Marshal(s)
	if err == nil {
		err = t.store.Save(ctx, raw)
	}
	if err != nil {
		slog.Warn("failed to save tracker state", "error", err)
		t.emit(events.SaveFailed, map[string]any{"error": err.Error()})
	}
}

func (t *Tracker) emit(eventType string, data map[string]any) {
	events.Log(t.events, events.Event{
		Source:    events.SourceTracker,
		Subject:   t.profile,
		EventType: eventType,
		Data:      data,
		CreatedAt: t.now(),
	})
}
