package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/events"
)

const maxBodyBytes = 1 << 20

// Handler serves the job-application API.
type Handler struct {
	repo   Repository
	events events.Logger
	now    func() time.Time
}

// NewHandler creates a handler over repo. logger may be nil.
func NewHandler(repo Repository, logger events.Logger) *Handler {
	if logger == nil {
		logger = events.NopLogger{}
	}
	return &Handler{repo: repo, events: logger, now: time.Now}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/job-applications", h.listApplications)
	mux.HandleFunc("POST /api/job-applications", h.createApplication)
	mux.HandleFunc("PATCH /api/job-applications/{id}", h.updateApplication)
	mux.HandleFunc("DELETE /api/job-applications/{id}", h.deleteApplication)
	mux.HandleFunc("POST /api/interview-rounds", h.createRound)
	mux.HandleFunc("PATCH /api/interview-rounds/{id}", h.updateRound)
	mux.HandleFunc("DELETE /api/interview-rounds/{id}", h.deleteRound)
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.repo.ListApplications(r.Context())
	if err != nil {
		h.fail(w, "fetch applications", err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var app Application
	if !decode(w, r, &app) {
		return
	}
	app, err := app.Normalize(h.now())
	if err != nil {
		h.fail(w, "create application", err)
		return
	}
	if err := h.repo.CreateApplication(r.Context(), app); err != nil {
		h.fail(w, "create application", err)
		return
	}
	h.emit(events.ApplicationCreated, app.ID, map[string]any{"company": app.CompanyName, "rounds": len(app.Rounds)})
	writeSuccess(w)
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var p ApplicationPatch
	if !decode(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		h.fail(w, "update application", err)
		return
	}
	if err := h.repo.UpdateApplication(r.Context(), id, p); err != nil {
		h.fail(w, "update application", err)
		return
	}
	data := map[string]any{}
	if p.ApplicationStatus != nil {
		data["status"] = string(*p.ApplicationStatus)
	}
	h.emit(events.ApplicationUpdated, id, data)
	writeSuccess(w)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.repo.DeleteApplication(r.Context(), id); err != nil {
		h.fail(w, "delete application", err)
		return
	}
	h.emit(events.ApplicationDeleted, id, nil)
	writeSuccess(w)
}

func (h *Handler) createRound(w http.ResponseWriter, r *http.Request) {
	var rd Round
	if !decode(w, r, &rd) {
		return
	}
	rd, err := rd.Normalize(h.now())
	if err != nil {
		h.fail(w, "create round", err)
		return
	}
	if err := h.repo.CreateRound(r.Context(), rd); err != nil {
		h.fail(w, "create round", err)
		return
	}
	h.emit(events.RoundCreated, rd.ID, map[string]any{"application_id": rd.ApplicationID})
	writeSuccess(w)
}

func (h *Handler) updateRound(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var p RoundPatch
	if !decode(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		h.fail(w, "update round", err)
		return
	}
	if err := h.repo.UpdateRound(r.Context(), id, p); err != nil {
		h.fail(w, "update round", err)
		return
	}
	h.emit(events.RoundUpdated, id, nil)
	writeSuccess(w)
}

func (h *Handler) deleteRound(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.repo.DeleteRound(r.Context(), id); err != nil {
		h.fail(w, "delete round", err)
		return
	}
	h.emit(events.RoundDeleted, id, nil)
	writeSuccess(w)
}

// fail maps err to a status code and writes {"error": ...}. Storage
// failures are logged and hidden behind a generic message.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("job api failure", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func (h *Handler) emit(eventType, subject string, data map[string]any) {
	events.Log(h.events, events.Event{
		Source:    events.SourceJobs,
		Subject:   subject,
		EventType: eventType,
		Data:      data,
		CreatedAt: h.now(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
