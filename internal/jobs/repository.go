package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Repository persists applications and rounds. Deleting an application
// deletes its rounds.
type Repository interface {
	ListApplications(ctx context.Context) ([]Application, error)
	CreateApplication(ctx context.Context, app Application) error
	UpdateApplication(ctx context.Context, id string, p ApplicationPatch) error
	DeleteApplication(ctx context.Context, id string) error
	CreateRound(ctx context.Context, r Round) error
	UpdateRound(ctx context.Context, id string, p RoundPatch) error
	DeleteRound(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// MemoryRepository is an in-memory Repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	apps   map[string]Application // rounds kept in rounds
	rounds map[string]Round
	now    func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		apps:   make(map[string]Application),
		rounds: make(map[string]Round),
		now:    time.Now,
	}
}

func (r *MemoryRepository) ListApplications(_ context.Context) ([]Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byApp := make(map[string][]Round)
	for _, rd := range r.rounds {
		byApp[rd.ApplicationID] = append(byApp[rd.ApplicationID], rd)
	}

	out := make([]Application, 0, len(r.apps))
	for _, app := range r.apps {
		app.Rounds = sortRounds(byApp[app.ID])
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) CreateApplication(_ context.Context, app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apps[app.ID]; ok {
		return fmt.Errorf("application %s: %w", app.ID, ErrConflict)
	}
	for _, rd := range app.Rounds {
		if _, ok := r.rounds[rd.ID]; ok {
			return fmt.Errorf("round %s: %w", rd.ID, ErrConflict)
		}
	}

	for _, rd := range app.Rounds {
		rd.ApplicationID = app.ID
		r.rounds[rd.ID] = rd
	}
	app.Rounds = nil
	r.apps[app.ID] = app
	return nil
}

func (r *MemoryRepository) UpdateApplication(_ context.Context, id string, p ApplicationPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok {
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	r.apps[id] = p.Apply(app, r.now())
	return nil
}

func (r *MemoryRepository) DeleteApplication(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apps[id]; !ok {
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	for rid, rd := range r.rounds {
		if rd.ApplicationID == id {
			delete(r.rounds, rid)
		}
	}
	delete(r.apps, id)
	return nil
}

func (r *MemoryRepository) CreateRound(_ context.Context, rd Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apps[rd.ApplicationID]; !ok {
		return fmt.Errorf("application %s: %w", rd.ApplicationID, ErrNotFound)
	}
	if _, ok := r.rounds[rd.ID]; ok {
		return fmt.Errorf("round %s: %w", rd.ID, ErrConflict)
	}
	r.rounds[rd.ID] = rd
	return nil
}

func (r *MemoryRepository) UpdateRound(_ context.Context, id string, p RoundPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd, ok := r.rounds[id]
	if !ok {
		return fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	r.rounds[id] = p.Apply(rd, r.now())
	return nil
}

func (r *MemoryRepository) DeleteRound(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rounds[id]; !ok {
		return fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	delete(r.rounds, id)
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

func sortRounds(rounds []Round) []Round {
	out := append([]Round{}, rounds...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}
