// Package api exposes the record creation pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/errors"
	"github.com/input-output-hk/dogstore/store"
	"github.com/input-output-hk/dogstore/validation"
	"github.com/input-output-hk/dogstore/workflow"
)

// MaxBodyBytes bounds the size of a request body.
const MaxBodyBytes = 1 << 20

// HeaderExecutionID carries the workflow execution id on POST responses.
const HeaderExecutionID = "X-Execution-Id"

// Runner runs one pipeline execution. *workflow.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, input domain.DogInput) workflow.Outcome
}

// RecordReader looks records up by id. Every store.RecordStore implements it.
type RecordReader interface {
	Get(ctx context.Context, id string) (domain.Dog, error)
}

// HealthChecker reports whether the record store can serve requests.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler provides the HTTP endpoints.
type Handler struct {
	validator *validation.Validator
	runner    Runner
	records   RecordReader
	logger    *slog.Logger
	timeout   time.Duration
	health    HealthChecker
}

// HandlerConfig configures the API handler.
type HandlerConfig struct {
	// Validator checks POST bodies (required).
	Validator *validation.Validator
	// Runner executes the pipeline for valid bodies (required).
	Runner Runner
	// Records serves GET /dogs/{id}. If nil, the route answers 404.
	Records RecordReader
	// Logger receives request failures. If nil, logging is disabled.
	Logger *slog.Logger
	// Health backs GET /health. If nil, the route always answers ok.
	Health HealthChecker
	// RequestTimeout bounds one pipeline execution. Zero means no bound
	// beyond the client's own cancellation.
	RequestTimeout time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		validator: cfg.Validator,
		runner:    cfg.Runner,
		records:   cfg.Records,
		logger:    logger,
		timeout:   cfg.RequestTimeout,
		health:    cfg.Health,
	}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /dogs", h.Create)
	mux.HandleFunc("GET /dogs/{id}", h.Get)
	mux.HandleFunc("GET /health", h.Health)

	return mux
}

// DogResponse is the body of a created or fetched record.
type DogResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Breed string `json:"breed"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Create validates the body and runs the pipeline.
// POST /dogs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			h.writeError(w, http.StatusUnsupportedMediaType, ErrorResponse{
				Error: "content type must be application/json",
				Code:  string(errors.CodeInvalidInput),
			})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "request body too large",
				Code:  string(errors.CodeInvalidInput),
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, ErrorResponse{
			Error: "unreadable request body",
			Code:  string(errors.CodeInvalidInput),
		})
		return
	}

	result := h.validator.Validate(body)
	if !result.Valid() {
		h.logger.InfoContext(r.Context(), "request rejected",
			"stage", domain.StageValidation.String(),
			"fields", result.Fields())
		h.writeError(w, http.StatusBadRequest, validationError(result.Fields()))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	out := h.runner.Run(ctx, result.Input)
	if out.ExecutionID != "" {
		w.Header().Set(HeaderExecutionID, out.ExecutionID)
	}

	switch {
	case out.Succeeded():
		h.writeJSON(w, http.StatusOK, toResponse(out.Record))
	case out.Stage == domain.StageValidation:
		h.writeError(w, http.StatusBadRequest, validationError(fieldsOf(out.Cause)))
	default:
		// The cause was logged by the orchestrator; only the correlation
		// id is repeated here.
		h.logger.ErrorContext(ctx, "request failed",
			"execution_id", out.ExecutionID,
			"stage", out.Stage.String())
		h.writeError(w, http.StatusInternalServerError, internalError())
	}
}

// Get returns a stored record.
// GET /dogs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.records == nil {
		h.writeError(w, http.StatusNotFound, notFound())
		return
	}

	dog, err := h.records.Get(r.Context(), id)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, toResponse(dog))
	case stderrors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, notFound())
	default:
		h.logger.ErrorContext(r.Context(), "get record failed",
			"id", id,
			"code", store.CodeFor(err).String(),
			"error", err)
		h.writeError(w, http.StatusInternalServerError, internalError())
	}
}

// Health reports whether the record store is reachable.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed",
				"code", store.CodeFor(err).String(),
				"error", err)
			h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func toResponse(dog domain.Dog) DogResponse {
	return DogResponse{ID: dog.ID, Name: dog.Name, Breed: dog.Breed}
}

func validationError(fields []string) ErrorResponse {
	return ErrorResponse{
		Error:  "validation failed",
		Code:   string(errors.CodeSchemaFailed),
		Fields: fields,
	}
}

func internalError() ErrorResponse {
	return ErrorResponse{Error: "internal error", Code: string(errors.CodeInternal)}
}

func notFound() ErrorResponse {
	return ErrorResponse{Error: "record not found", Code: string(errors.CodeNotFound)}
}

// fieldsOf extracts the offending field names recorded on err.
func fieldsOf(err error) []string {
	if fields, ok := errors.ContextOf(err)["fields"].([]string); ok {
		return fields
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	h.writeJSON(w, status, resp)
}
