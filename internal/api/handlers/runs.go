package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/internal/jobrun"
	"github.com/wonny/aurora/engine/internal/queue"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// RunReader is the read side of the run store
type RunReader interface {
	Get(ctx context.Context, runID string) (*contracts.JobRun, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]contracts.JobRun, error)
}

// RunSubmitter creates and enqueues runs
type RunSubmitter interface {
	Submit(ctx context.Context, userID string, kind contracts.JobKind) (*contracts.JobRun, error)
}

// QueueStats reads queue depth
type QueueStats interface {
	Stats(ctx context.Context) (*queue.Stats, error)
}

// RunHandler handles run status and submission endpoints
// ⭐ SSOT: 실행 상태 API 핸들러는 이 구조체에서만
type RunHandler struct {
	runs      RunReader
	submitter RunSubmitter
	queue     QueueStats
	logger    *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunReader, submitter RunSubmitter, q QueueStats, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runs:      runs,
		submitter: submitter,
		queue:     q,
		logger:    log,
	}
}

// GetRun returns one run's status and error text
// GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, jobrun.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// ListRuns returns a user's latest runs
// GET /api/runs?user=<id>&limit=<n>
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user is required")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be in [1, 200]")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []contracts.JobRun{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// SubmitRequest is the body of POST /api/runs
type SubmitRequest struct {
	UserID string `json:"userId"`
	Type   string `json:"type"` // "scoring", "allocation" (or "pac"), "full"
}

// SubmitRun creates a NOT_STARTED run and enqueues it
// POST /api/runs
func (h *RunHandler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := contracts.ParseJobKind(req.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	run, err := h.submitter.Submit(r.Context(), req.UserID, kind)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", req.UserID).Error("Failed to submit run")
		respondError(w, http.StatusInternalServerError, "Failed to submit run")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id":  run.ID,
		"user_id": run.UserID,
		"kind":    run.Kind,
	}).Info("Run submitted")

	respondJSON(w, http.StatusAccepted, run)
}

// GetQueueStats returns wait/active/dead counts
// GET /api/queue/stats
func (h *RunHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read queue stats")
		respondError(w, http.StatusServiceUnavailable, "Queue unavailable")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
