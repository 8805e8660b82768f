package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Board is the client-side list of applications. Every change is sent to
// the repository first; the local list only changes once that succeeds.
type Board struct {
	mu   sync.Mutex
	repo Repository
	apps []Application
	now  func() time.Time
}

// NewBoard creates an empty board backed by repo.
func NewBoard(repo Repository) *Board {
	return &Board{repo: repo, now: time.Now}
}

// Refresh replaces the local list with the repository's.
func (b *Board) Refresh(ctx context.Context) error {
	apps, err := b.repo.ListApplications(ctx)
	if err != nil {
		slog.Warn("failed to fetch applications", "error", err)
		return err
	}
	b.mu.Lock()
	b.apps = apps
	b.mu.Unlock()
	return nil
}

// Applications returns a copy of the local list.
func (b *Board) Applications() []Application {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Application, len(b.apps))
	for i, a := range b.apps {
		out[i] = cloneApplication(a)
	}
	return out
}

// AddCompany creates an application for company with three pending rounds.
func (b *Board) AddCompany(ctx context.Context, company string) (Application, error) {
	app := NewApplication(company, b.now())
	if app.CompanyName == "" {
		return Application{}, fmt.Errorf("%w: companyName is required", ErrInvalid)
	}
	if err := b.repo.CreateApplication(ctx, app); err != nil {
		slog.Warn("failed to create application", "company", company, "error", err)
		return Application{}, err
	}

	b.mu.Lock()
	b.apps = append(b.apps, app)
	b.mu.Unlock()
	return cloneApplication(app), nil
}

// SetStatus changes an application's status.
func (b *Board) SetStatus(ctx context.Context, id string, status Status) error {
	return b.UpdateApplication(ctx, id, ApplicationPatch{ApplicationStatus: &status})
}

// SetReview replaces an application's review text.
func (b *Board) SetReview(ctx context.Context, id, review string) error {
	return b.UpdateApplication(ctx, id, ApplicationPatch{Review: &review})
}

// UpdateApplication applies p remotely, then locally.
func (b *Board) UpdateApplication(ctx context.Context, id string, p ApplicationPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := b.repo.UpdateApplication(ctx, id, p); err != nil {
		slog.Warn("failed to update application", "id", id, "error", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.apps {
		if a.ID == id {
			b.apps[i] = p.Apply(a, b.now())
		}
	}
	return nil
}

// DeleteApplication removes an application and its rounds.
func (b *Board) DeleteApplication(ctx context.Context, id string) error {
	if err := b.repo.DeleteApplication(ctx, id); err != nil {
		slog.Warn("failed to delete application", "id", id, "error", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.apps[:0:0]
	for _, a := range b.apps {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	b.apps = kept
	return nil
}

// AddRound appends a pending round named after its position.
func (b *Board) AddRound(ctx context.Context, appID string) (Round, error) {
	b.mu.Lock()
	number := -1
	for _, a := range b.apps {
		if a.ID == appID {
			number = len(a.Rounds) + 1
		}
	}
	b.mu.Unlock()
	if number < 0 {
		return Round{}, fmt.Errorf("application %s: %w", appID, ErrNotFound)
	}

	rd, err := Round{ApplicationID: appID, RoundNumber: number}.Normalize(b.now())
	if err != nil {
		return Round{}, err
	}
	if err := b.repo.CreateRound(ctx, rd); err != nil {
		slog.Warn("failed to create round", "application_id", appID, "error", err)
		return Round{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.apps {
		if a.ID == appID {
			b.apps[i].Rounds = append(cloneApplication(a).Rounds, rd)
		}
	}
	return rd, nil
}

// UpdateRound applies p to a round remotely, then locally.
func (b *Board) UpdateRound(ctx context.Context, roundID string, p RoundPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := b.repo.UpdateRound(ctx, roundID, p); err != nil {
		slog.Warn("failed to update round", "id", roundID, "error", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.apps {
		for j, rd := range a.Rounds {
			if rd.ID == roundID {
				rounds := cloneApplication(a).Rounds
				rounds[j] = p.Apply(rd, b.now())
				b.apps[i].Rounds = rounds
			}
		}
	}
	return nil
}

// DeleteRound removes a round remotely, then locally.
func (b *Board) DeleteRound(ctx context.Context, roundID string) error {
	if err := b.repo.DeleteRound(ctx, roundID); err != nil {
		slog.Warn("failed to delete round", "id", roundID, "error", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.apps {
		kept := make([]Round, 0, len(a.Rounds))
		for _, rd := range a.Rounds {
			if rd.ID != roundID {
				kept = append(kept, rd)
			}
		}
		b.apps[i].Rounds = kept
	}
	return nil
}
