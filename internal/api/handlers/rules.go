package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/rent-ledger/internal/api/middleware"
	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/jobs"
	"github.com/dvloznov/rent-ledger/internal/rules"
)

// CorrectionRecorder stores a user correction as a rule.
type CorrectionRecorder interface {
	Record(ctx context.Context, corr rules.Correction) (*domain.CategorizationRule, error)
}

// RulesHandler handles categorization rule endpoints.
type RulesHandler struct {
	corrector CorrectionRecorder
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(corrector CorrectionRecorder, publisher jobs.Publisher, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{
		corrector: corrector,
		publisher: publisher,
		log:       log,
	}
}

// RecordCorrection handles POST /rules/corrections
func (h *RulesHandler) RecordCorrection(w http.ResponseWriter, r *http.Request) {
	var corr rules.Correction
	if err := json.NewDecoder(r.Body).Decode(&corr); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.corrector.Record(r.Context(), corr)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to record correction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"rule": rule,
	})
}

// RegenerateProperty handles POST /rules/properties
func (h *RulesHandler) RegenerateProperty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string         `json:"userId"`
		Property rules.Property `json:"property"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := req.Property.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := jobs.NewRegenerateRulesJob(req.UserID, req.Property)
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue rule regeneration")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue rule regeneration")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  job.JobID,
		"status": string(job.Status),
	})
}
