// Package server exposes a small read-mostly HTTP surface for dashboards:
// start an acquisition run, read run status, list campaigns. Filter
// application deliberately stays on the CLI; the server never applies
// filters on an operator's behalf.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/acquire"
	"github.com/kmicpaps/lead-gen-sub001/internal/archive"
	"github.com/kmicpaps/lead-gen-sub001/internal/source"
)

// Server wires the orchestrator and archive behind chi.
type Server struct {
	orch  *acquire.Orchestrator
	store archive.Store
}

// New creates a Server.
func New(orch *acquire.Orchestrator, store archive.Store) *Server {
	return &Server{orch: orch, store: store}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.startRun)
		r.Get("/runs/{runID}", s.getRun)
		r.Get("/runs", s.listRuns)
		r.Get("/campaigns", s.listCampaigns)
	})

	return r
}

type startRunRequest struct {
	ClientID string       `json:"client_id"`
	Target   int          `json:"target"`
	Commit   bool         `json:"commit"`
	Query    source.Query `json:"query"`
}

// startRun launches an acquisition run asynchronously and returns 202
// with the run id; progress is persisted via the archive's run records.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" || req.Target <= 0 {
		writeError(w, http.StatusBadRequest, "client_id and positive target are required")
		return
	}

	// Allocate the run id here so the client can poll GET /api/runs/{id}
	// before the run record exists.
	runID := uuid.New().String()

	// Detach from the request context: the run outlives the HTTP exchange.
	runCtx := r.Context()
	go func() {
		result, err := s.orch.RunWithID(context.WithoutCancel(runCtx), runID, req.ClientID, req.Query, req.Target, req.Commit)
		if err != nil {
			zap.L().Error("server: acquisition run failed",
				zap.String("run_id", runID),
				zap.String("client_id", req.ClientID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("server: acquisition run complete",
			zap.String("run_id", result.Report.RunID),
			zap.Int("final", result.Report.Final),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "accepted",
		"run_id":    runID,
		"client_id": req.ClientID,
		"target":    req.Target,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	report, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client query parameter is required")
		return
	}
	reports, err := s.store.ListRuns(r.Context(), clientID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// listCampaigns returns campaign summaries without lead snapshots; the
// snapshots can be large and the dashboard only needs counts.
func (s *Server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client query parameter is required")
		return
	}
	campaigns, err := s.store.ListCampaigns(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type summary struct {
		CampaignID string `json:"campaign_id"`
		CreatedAt  string `json:"created_at"`
		LeadCount  int    `json:"lead_count"`
	}
	out := make([]summary, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, summary{
			CampaignID: c.CampaignID,
			CreatedAt:  c.CreatedAt.Format(time.RFC3339),
			LeadCount:  c.LeadCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
