package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/rent-ledger/internal/api/middleware"
	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/jobs"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes it as {"message": ...}.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
	} else {
		log.Warn().Err(err).Int("status", status).Msg(msg)
	}
	middleware.WriteError(w, status, err.Error())
}

// SyncHandler handles the account sync endpoints.
type SyncHandler struct {
	syncer    jobs.SyncRunner
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(runner jobs.SyncRunner, publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer:    runner,
		publisher: publisher,
		log:       log,
	}
}

type syncResponse struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

func decodeSyncRequest(r *http.Request) (syncer.Request, string) {
	var req syncer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "Invalid request body"
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.BankAccountID) == "" {
		return req, "userId and bankAccountId are required"
	}
	return req, ""
}

// Sync handles POST /sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	req, problem := decodeSyncRequest(r)
	if problem != "" {
		middleware.WriteError(w, http.StatusBadRequest, problem)
		return
	}

	res, err := h.syncer.Sync(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "Sync failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, syncResponse{
		OK:    true,
		Mode:  res.Mode.Label(),
		Count: res.Count,
	})
}

// EnqueueSync handles POST /sync/jobs
func (h *SyncHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	req, problem := decodeSyncRequest(r)
	if problem != "" {
		middleware.WriteError(w, http.StatusBadRequest, problem)
		return
	}

	job := jobs.NewSyncAccountJob(req)
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("user_id", req.UserID).
		Str("bank_account_id", req.BankAccountID).
		Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.log.With().Str("job_id", jobID).Logger(), err, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("userId"),
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
