package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-tracker/internal/events"
	"github.com/p-n-ai/pai-tracker/internal/jobs"
)

func newTestMux(repo jobs.Repository, logger events.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	jobs.NewHandler(repo, logger).Register(mux)
	return mux
}

func serve(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CRUD(t *testing.T) {
	repo := jobs.NewMemoryRepository()
	logger := events.NewMemoryLogger()
	mux := newTestMux(repo, logger)

	rec := serve(t, mux, http.MethodPost, "/api/job-applications", `{
		"id": "app-1",
		"companyName": "Acme",
		"rounds": [
			{"id": "r1", "roundName": "Round 1", "roundNumber": 1},
			{"id": "r2", "roundName": "Round 2", "roundNumber": 2}
		]
	}`)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, mux, http.MethodPost, "/api/job-applications", `{"companyName": "Globex"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create without id = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, mux, http.MethodPatch, "/api/job-applications/app-1", `{"applicationStatus": "accepted", "review": "offer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, mux, http.MethodPost, "/api/interview-rounds", `{"id": "r3", "applicationId": "app-1", "roundName": "HR", "roundNumber": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create round = %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, mux, http.MethodPatch, "/api/interview-rounds/r1", `{"status": "accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch round = %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, mux, http.MethodDelete, "/api/interview-rounds/r2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete round = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, mux, http.MethodGet, "/api/job-applications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var apps []jobs.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &apps); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len(apps) = %d, want 2", len(apps))
	}
	acme := apps[slices.IndexFunc(apps, func(a jobs.Application) bool { return a.ID == "app-1" })]
	if acme.ApplicationStatus != jobs.StatusAccepted || acme.Review != "offer" {
		t.Errorf("acme = %+v", acme)
	}
	if len(acme.Rounds) != 2 || acme.Rounds[0].ID != "r1" || acme.Rounds[0].Status != jobs.StatusAccepted || acme.Rounds[1].ID != "r3" {
		t.Errorf("acme rounds = %+v", acme.Rounds)
	}

	rec = serve(t, mux, http.MethodDelete, "/api/job-applications/app-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, mux, http.MethodPatch, "/api/interview-rounds/r3", `{"status": "rejected"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("round after cascade delete: status = %d, want 404", rec.Code)
	}

	want := []string{
		events.ApplicationCreated, events.ApplicationCreated, events.ApplicationUpdated,
		events.RoundCreated, events.RoundUpdated, events.RoundDeleted, events.ApplicationDeleted,
	}
	if got := logger.Types(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestHandler_Errors(t *testing.T) {
	mux := newTestMux(jobs.NewMemoryRepository(), nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"malformed body", http.MethodPost, "/api/job-applications", `{"companyName":`, http.StatusBadRequest},
		{"missing company", http.MethodPost, "/api/job-applications", `{"review": "x"}`, http.StatusBadRequest},
		{"bad status", http.MethodPost, "/api/job-applications", `{"companyName": "Acme", "applicationStatus": "ghosted"}`, http.StatusBadRequest},
		{"patch unknown", http.MethodPatch, "/api/job-applications/nope", `{"review": "x"}`, http.StatusNotFound},
		{"patch bad status", http.MethodPatch, "/api/job-applications/nope", `{"applicationStatus": "ghosted"}`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/api/job-applications/nope", "", http.StatusNotFound},
		{"round for unknown app", http.MethodPost, "/api/interview-rounds", `{"applicationId": "nope"}`, http.StatusNotFound},
		{"round without app", http.MethodPost, "/api/interview-rounds", `{"roundName": "HR"}`, http.StatusBadRequest},
		{"delete unknown round", http.MethodDelete, "/api/interview-rounds/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/job-applications/x", `{}`, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, mux, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusMethodNotAllowed {
				return
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("body = %q, want {\"error\": ...}", rec.Body.String())
			}
		})
	}
}

// brokenRepository fails every call like an unreachable database.
type brokenRepository struct{ jobs.Repository }

var errDown = errors.New("connection refused")

func (brokenRepository) ListApplications(context.Context) ([]jobs.Application, error) {
	return nil, errDown
}
func (brokenRepository) CreateApplication(context.Context, jobs.Application) error { return errDown }
func (brokenRepository) UpdateApplication(context.Context, string, jobs.ApplicationPatch) error {
	return errDown
}
func (brokenRepository) DeleteApplication(context.Context, string) error { return errDown }
func (brokenRepository) CreateRound(context.Context, jobs.Round) error   { return errDown }
func (brokenRepository) UpdateRound(context.Context, string, jobs.RoundPatch) error {
	return errDown
}
func (brokenRepository) DeleteRound(context.Context, string) error { return errDown }
func (brokenRepository) Ping(context.Context) error                { return errDown }

func TestHandler_StorageFailure(t *testing.T) {
	mux := newTestMux(brokenRepository{}, nil)

	rec := serve(t, mux, http.MethodGet, "/api/job-applications", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("storage error leaked to client: %s", rec.Body.String())
	}

	rec = serve(t, mux, http.MethodPost, "/api/job-applications", `{"companyName": "Acme"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("create status = %d, want 500", rec.Code)
	}
}
