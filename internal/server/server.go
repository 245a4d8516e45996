// Package server exposes the bridge's HTTP surface: a banner and health
// route, on-demand push/pull triggers, the Google OAuth handshake, and a
// sheet read preview.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ospect/amosheets/internal/engine"
	"github.com/ospect/amosheets/internal/sheets"
)

// previewRows caps how many rows the sheet read route echoes back.
const previewRows = 10

// PushRunner runs one sheet-to-CRM reconciliation.
type PushRunner interface {
	ProcessNewRows(ctx context.Context) (engine.PushResult, error)
}

// PullRunner runs one CRM-to-sheet reconciliation.
type PullRunner interface {
	SyncFromAmo(ctx context.Context) (engine.PullResult, error)
}

// Server is the HTTP trigger surface. The sync routes invoke the
// reconcilers directly on the request goroutine and do not coordinate with
// the interval triggers, so a manual run may overlap a scheduled one;
// per-row deal references keep that safe for push, and pull's full rebuild
// makes the later run win.
type Server struct {
	pusher PushRunner
	puller PullRunner
	store  sheets.RowStore
	auth   *sheets.Authorizer
	logger *slog.Logger
}

// New creates a Server over the two reconcilers, the row store used for
// the read preview, and the OAuth authorizer.
func New(pusher PushRunner, puller PullRunner, store sheets.RowStore, auth *sheets.Authorizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pusher: pusher,
		puller: puller,
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		s.handleRoot(w, r)
	case "/healthz":
		s.handleHealth(w, r)
	case "/sync/push":
		s.handlePush(w, r)
	case "/sync/pull":
		s.handlePull(w, r)
	case "/google/oauth2/start":
		s.handleOAuthStart(w, r)
	case "/google/oauth2/callback":
		s.handleOAuthCallback(w, r)
	case "/google/sheets/read":
		s.handleSheetRead(w, r)
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "OK. Google OAuth: /google/oauth2/start | Push: /sync/push | Pull: /sync/pull")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePush runs one push reconciliation synchronously and returns its
// summary. GET stays accepted alongside POST for curl-style triggering.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result, err := s.pusher.ProcessNewRows(r.Context())
	if err != nil {
		s.logger.Error("On-demand push failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("sync error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result, err := s.puller.SyncFromAmo(r.Context())
	if err != nil {
		s.logger.Error("On-demand pull failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("pull error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	url, err := s.auth.AuthURL()
	if err != nil {
		s.logger.Error("Failed to start OAuth flow", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleOAuthCallback finishes the grant and forwards the operator to the
// read preview so a successful flow immediately shows sheet data.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	if err := s.auth.HandleCallback(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		s.logger.Error("OAuth callback failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, "/google/sheets/read", http.StatusFound)
}

func (s *Server) handleSheetRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows, err := s.store.ReadAllRows(r.Context())
	if err != nil {
		s.logger.Error("Sheet read failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	if preview == nil {
		preview = [][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows_preview": preview,
		"count":        len(rows),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
