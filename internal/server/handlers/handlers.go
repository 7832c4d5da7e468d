// Package handlers contains HTTP handlers for the API server.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"flakewatch/internal/store"
	"flakewatch/pkg/api"
)

// StoreFactory combines the store interfaces the handlers need.
type StoreFactory interface {
	Ping(ctx context.Context) error
	store.ExecutionStore
	store.DefectStore
	store.RuleStore
}

// Dispatcher receives durably recorded executions for asynchronous
// classification and triage. The pipeline implements it.
type Dispatcher interface {
	Dispatch(execution store.TestExecution)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store    StoreFactory
	pipeline Dispatcher
	log      *slog.Logger
}

// New creates a new Handlers instance with the given dependencies.
func New(s StoreFactory, pipeline Dispatcher, log *slog.Logger) *Handlers {
	return &Handlers{store: s, pipeline: pipeline, log: log}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
