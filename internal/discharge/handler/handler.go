// Package handler wires the discharge verification endpoints to the
// orchestrator.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clearpath/internal/discharge"
	"clearpath/internal/state"
	"clearpath/pkg/httputil"
	"clearpath/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service,StateReader

// Service defines the orchestrator surface the handler depends on.
type Service interface {
	Run(ctx context.Context, patientID string) (*discharge.RunResult, error)
}

// StateReader exposes stored verification state for the read endpoint.
type StateReader interface {
	Load(ctx context.Context, patientID string) (*state.PersistedState, error)
	IsExpired(ctx context.Context, patientID string) bool
}

// Handler wires discharge endpoints to the verification service.
type Handler struct {
	service Service
	states  StateReader
	logger  *slog.Logger
}

// New constructs a discharge handler with its dependencies.
func New(service Service, states StateReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		states:  states,
		logger:  logger,
	}
}

// Register mounts discharge endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/discharge/verify", h.HandleVerify)
	r.Get("/discharge/{patientID}/state", h.HandleState)
}

// HandleVerify handles POST /discharge/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	patientID := strings.TrimSpace(req.PatientID)
	if patientID == "" {
		httputil.WriteDetail(w, http.StatusBadRequest, "patientId is required")
		return
	}

	result, err := h.service.Run(ctx, patientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification run failed",
			"request_id", requestID,
			"patient_id", patientID,
			"error", err,
		)
		httputil.WriteDetail(w, http.StatusInternalServerError, "verification failed: "+err.Error())
		return
	}

	h.logger.InfoContext(ctx, "verification run served",
		"request_id", requestID,
		"patient_id", patientID,
		"outcome", result.Decision.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRunResult(result))
}

// HandleState handles GET /discharge/{patientID}/state requests.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := chi.URLParam(r, "patientID")

	persisted, err := h.states.Load(ctx, patientID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			httputil.WriteDetail(w, http.StatusNotFound, "no verification state for patient "+patientID)
			return
		}
		h.logger.ErrorContext(ctx, "state lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"patient_id", patientID,
			"error", err,
		)
		httputil.WriteDetail(w, http.StatusInternalServerError, "state lookup failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StateResponse{
		PatientID: patientID,
		State:     persisted,
		Expired:   h.states.IsExpired(ctx, patientID),
	})
}
