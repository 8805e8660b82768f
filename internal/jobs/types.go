// Package jobs tracks job applications and their interview rounds: a
// repository (memory or PostgreSQL), the HTTP API over it, and a client-side
// board that only reflects changes the server accepted.
package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("already exists")
)

// Status is the state of an application or a round.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Round is one interview round of an application.
type Round struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	RoundName     string    `json:"roundName"`
	RoundNumber   int       `json:"roundNumber"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Application is a job application with its rounds ordered by RoundNumber.
type Application struct {
	ID                string    `json:"id"`
	CompanyName       string    `json:"companyName"`
	ApplicationStatus Status    `json:"applicationStatus"`
	Review            string    `json:"review"`
	Rounds            []Round   `json:"rounds"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ApplicationPatch is a partial update. Nil fields are left unchanged.
type ApplicationPatch struct {
	CompanyName       *string `json:"companyName,omitempty"`
	ApplicationStatus *Status `json:"applicationStatus,omitempty"`
	Review            *string `json:"review,omitempty"`
}

// RoundPatch is a partial update. Nil fields are left unchanged.
type RoundPatch struct {
	RoundName   *string `json:"roundName,omitempty"`
	RoundNumber *int    `json:"roundNumber,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// defaultRounds is the number of rounds a new company starts with.
const defaultRounds = 3

// NewApplication returns a pending application for company with three pending rounds.
func NewApplication(company string, now time.Time) Application {
	app := Application{
		ID:                uuid.NewString(),
		CompanyName:       company,
		ApplicationStatus: StatusPending,
	}
	for i := 1; i <= defaultRounds; i++ {
		app.Rounds = append(app.Rounds, Round{
			ID:          uuid.NewString(),
			RoundName:   fmt.Sprintf("Round %d", i),
			RoundNumber: i,
			Status:      StatusPending,
		})
	}
	normalized, _ := app.Normalize(now)
	return normalized
}

// Normalize fills defaults (ids, pending status, round numbering, timestamps)
// and validates the result.
func (a Application) Normalize(now time.Time) (Application, error) {
	a.CompanyName = strings.TrimSpace(a.CompanyName)
	if a.CompanyName == "" {
		return a, fmt.Errorf("%w: companyName is required", ErrInvalid)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = StatusPending
	}
	if !a.ApplicationStatus.Valid() {
		return a, fmt.Errorf("%w: applicationStatus %q", ErrInvalid, a.ApplicationStatus)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	rounds := make([]Round, len(a.Rounds))
	for i, r := range a.Rounds {
		r.ApplicationID = a.ID
		if r.RoundNumber == 0 {
			r.RoundNumber = i + 1
		}
		nr, err := r.Normalize(now)
		if err != nil {
			return a, err
		}
		rounds[i] = nr
	}
	a.Rounds = rounds
	return a, nil
}

// Normalize fills defaults and validates the round.
func (r Round) Normalize(now time.Time) (Round, error) {
	if r.ApplicationID == "" {
		return r, fmt.Errorf("%w: applicationId is required", ErrInvalid)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RoundNumber < 0 {
		return r, fmt.Errorf("%w: roundNumber must not be negative", ErrInvalid)
	}
	if strings.TrimSpace(r.RoundName) == "" {
		r.RoundName = fmt.Sprintf("Round %d", r.RoundNumber)
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if !r.Status.Valid() {
		return r, fmt.Errorf("%w: status %q", ErrInvalid, r.Status)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return r, nil
}

// Validate checks the fields the patch sets.
func (p ApplicationPatch) Validate() error {
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		return fmt.Errorf("%w: companyName must not be empty", ErrInvalid)
	}
	if p.ApplicationStatus != nil && !p.ApplicationStatus.Valid() {
		return fmt.Errorf("%w: applicationStatus %q", ErrInvalid, *p.ApplicationStatus)
	}
	return nil
}

// Apply returns a with the patch applied.
func (p ApplicationPatch) Apply(a Application, now time.Time) Application {
	if p.CompanyName != nil {
		a.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.ApplicationStatus != nil {
		a.ApplicationStatus = *p.ApplicationStatus
	}
	if p.Review != nil {
		a.Review = *p.Review
	}
	a.UpdatedAt = now
	return a
}

// Validate checks the fields the patch sets.
func (p RoundPatch) Validate() error {
	if p.RoundName != nil && strings.TrimSpace(*p.RoundName) == "" {
		return fmt.Errorf("%w: roundName must not be empty", ErrInvalid)
	}
	if p.RoundNumber != nil && *p.RoundNumber < 0 {
		return fmt.Errorf("%w: roundNumber must not be negative", ErrInvalid)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalid, *p.Status)
	}
	return nil
}

// Apply returns r with the patch applied.
func (p RoundPatch) Apply(r Round, now time.Time) Round {
	if p.RoundName != nil {
		r.RoundName = *p.RoundName
	}
	if p.RoundNumber != nil {
		r.RoundNumber = *p.RoundNumber
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	r.UpdatedAt = now
	return r
}

func cloneApplication(a Application) Application {
	a.Rounds = append([]Round{}, a.Rounds...)
	return a
}
