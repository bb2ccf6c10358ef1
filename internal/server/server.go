// Package server exposes the simulators, the mentor scorer and the ledger as
// a JSON HTTP API.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/config"
	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/carlitos-finanzas/carlitos/pkg/output"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Dependencies are the services behind the API.
type Dependencies struct {
	Ledger    *ledger.Service
	Scorer    *mentor.Scorer
	Simulator config.SimulatorConfig
	// Limiter throttles /api requests per client when set.
	Limiter *RateLimiter
}

type handler struct {
	logger      *zap.Logger
	ledger      *ledger.Service
	scorer      *mentor.Scorer
	simulator   config.SimulatorConfig
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the placeholder page and the API.
func NewHandler(logger *zap.Logger, deps Dependencies, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	scorer := deps.Scorer
	if scorer == nil {
		var err error
		scorer, err = mentor.NewScorer(mentor.DefaultConfig(), nil)
		if err != nil {
			panic(fmt.Sprintf("failed to build default mentor scorer: %v", err))
		}
	}

	h := &handler{
		logger:      logger,
		ledger:      deps.Ledger,
		scorer:      scorer,
		simulator:   deps.Simulator,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	if deps.Limiter != nil {
		api.Use(h.rateLimitMiddleware(deps.Limiter))
	}

	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	api.HandleFunc("/simulate/future-value", h.handleFutureValue).Methods(http.MethodPost)
	api.HandleFunc("/simulate/time-to-target", h.handleTimeToTarget).Methods(http.MethodPost)

	api.HandleFunc("/mentor", h.handleMentor).Methods(http.MethodPost)
	api.HandleFunc("/mentor/personas", h.handlePersonas).Methods(http.MethodGet)

	if h.ledger != nil {
		api.HandleFunc("/transactions", h.handleListTransactions).Methods(http.MethodGet)
		api.HandleFunc("/transactions", h.handleAddTransaction).Methods(http.MethodPost)
		api.HandleFunc("/transactions/export", h.handleExport).Methods(http.MethodGet)
		api.HandleFunc("/transactions/{id}", h.handleDeleteTransaction).Methods(http.MethodDelete)

		api.HandleFunc("/goals", h.handleListGoals).Methods(http.MethodGet)
		api.HandleFunc("/goals", h.handleAddGoal).Methods(http.MethodPost)
		api.HandleFunc("/goals/{id}", h.handleDeleteGoal).Methods(http.MethodDelete)
		api.HandleFunc("/goals/{id}/progress", h.handleGoalProgress).Methods(http.MethodGet)

		api.HandleFunc("/summary", h.handleSummary).Methods(http.MethodGet)
		api.HandleFunc("/overview", h.handleOverview).Methods(http.MethodGet)

		api.HandleFunc("/profile", h.handleProfile).Methods(http.MethodGet)
		api.HandleFunc("/lessons", h.handleLessons).Methods(http.MethodGet)
		api.HandleFunc("/lessons/{id}/complete", h.handleCompleteLesson).Methods(http.MethodPost)
	}

	// Static assets
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	router.PathPrefix("/").Methods(http.MethodGet, http.MethodHead).Handler(http.FileServer(http.FS(sub)))

	return router
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type futureValueRequest struct {
	Monthly     float64  `json:"monthly"`
	RatePercent *float64 `json:"ratePercent,omitempty"`
	Years       *int     `json:"years,omitempty"`
	Start       string   `json:"start,omitempty"` // YYYY-MM of the first contribution
}

func (h *handler) handleFutureValue(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFutureValue"

	var req futureValueRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	ratePercent := h.simulator.RatePercent
	if req.RatePercent != nil {
		ratePercent = *req.RatePercent
	}
	years := h.simulator.Years
	if req.Years != nil {
		years = *req.Years
	}

	plan := projection.ContributionPlan{
		Monthly:    req.Monthly,
		AnnualRate: projection.PercentToRate(ratePercent),
		Years:      years,
	}
	if err := plan.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	start := req.Start
	if start == "" {
		start = h.now().Format(constants.DateTimeLayout)
	}
	schedule, err := projection.Schedule(plan, start)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	fv := plan.FutureValue()
	contributed := plan.TotalContributed()
	if err := projection.CheckFinite(fv, contributed); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, output.FutureValueResult{
		Plan:        plan,
		FutureValue: fv,
		Contributed: contributed,
		Interest:    fv - contributed,
		Schedule:    schedule,
	})
}

type timeToTargetRequest struct {
	Monthly     float64  `json:"monthly"`
	RatePercent *float64 `json:"ratePercent,omitempty"`
	Target      *float64 `json:"target,omitempty"`
}

func (h *handler) handleTimeToTarget(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTimeToTarget"

	var req timeToTargetRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	ratePercent := h.simulator.RatePercent
	if req.RatePercent != nil {
		ratePercent = *req.RatePercent
	}
	target := h.simulator.Target
	if target == 0 {
		target = projection.MillionTarget
	}
	if req.Target != nil {
		target = *req.Target
	}

	st := projection.SavingsTarget{
		Monthly:    req.Monthly,
		AnnualRate: projection.PercentToRate(ratePercent),
		Target:     target,
	}
	if err := st.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, output.TimeToTargetResult{
		Target:   st,
		Duration: st.Duration(),
	})
}

type mentorResponse struct {
	mentor.Assignment
	Profile *progress.Profile `json:"profile,omitempty"`
}

func (h *handler) handleMentor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMentor"

	var raw mentor.RawAnswers
	if !h.decodeJSON(w, r, &raw, op) {
		return
	}

	resp := mentorResponse{Assignment: h.scorer.Evaluate(raw.Parse())}
	if h.ledger != nil {
		profile, err := h.ledger.SetMentor(r.Context(), string(resp.Persona.ID))
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
		resp.Profile = &profile
	}

	h.logger.Debug("mentor assigned",
		zap.String("op", op),
		zap.String("persona", string(resp.Persona.ID)),
		zap.String("keyword", resp.Keyword),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handlePersonas(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, mentor.Personas())
}

func (h *handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.Transactions(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleListTransactions")
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

type addTransactionResponse struct {
	Transaction ledger.Transaction `json:"transaction"`
	Reward      progress.Reward    `json:"reward"`
}

func (h *handler) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddTransaction"

	var in ledger.TransactionInput
	if !h.decodeJSON(w, r, &in, op) {
		return
	}

	tx, reward, err := h.ledger.AddTransaction(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, addTransactionResponse{Transaction: tx, Reward: reward})
}

func (h *handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteTransaction"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	if err := h.ledger.DeleteTransaction(r.Context(), id); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = constants.OutputFormatCSV
	}
	if format != constants.OutputFormatCSV && format != constants.OutputFormatJSON {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q, expected csv or json", format), op)
		return
	}

	txs, err := h.ledger.Transactions(r.Context())
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	filename := "transacciones." + format
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if format == constants.OutputFormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		err = ledger.ExportCSV(w, txs)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err = ledger.ExportJSON(w, txs)
	}
	if err != nil {
		h.logger.Error("failed to write export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.ledger.Goals(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleListGoals")
		return
	}
	if goals == nil {
		goals = []ledger.Goal{}
	}
	h.writeJSON(w, http.StatusOK, goals)
}

func (h *handler) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddGoal"

	var in ledger.GoalInput
	if !h.decodeJSON(w, r, &in, op) {
		return
	}

	goal, err := h.ledger.AddGoal(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, goal)
}

func (h *handler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteGoal"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	if err := h.ledger.DeleteGoal(r.Context(), id); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGoalProgress"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	query := r.URL.Query()
	monthly, err := parseFloatParam(query.Get("monthly"), 0)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid monthly: %v", err), op)
		return
	}
	ratePercent, err := parseFloatParam(query.Get("ratePercent"), h.simulator.RatePercent)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid ratePercent: %v", err), op)
		return
	}
	if monthly < 0 || ratePercent < 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "monthly and ratePercent must not be negative", op)
		return
	}

	gp, err := h.ledger.GoalProgress(r.Context(), id, monthly, projection.PercentToRate(ratePercent))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, gp)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.Summary(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleSummary")
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

func (h *handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOverview"

	rng, err := ledger.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	buckets, err := h.ledger.Overview(r.Context(), rng)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":   rng,
		"buckets": buckets,
	})
}

type profileResponse struct {
	progress.Profile
	Level progress.Level `json:"level"`
}

func (h *handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ledger.Profile(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleProfile")
		return
	}
	h.writeJSON(w, http.StatusOK, profileResponse{Profile: profile, Level: profile.Level()})
}

func (h *handler) handleLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.ledger.Lessons(r.Context(), progress.Difficulty(r.URL.Query().Get("difficulty")))
	if err != nil {
		h.respondServiceError(w, err, "server.handleLessons")
		return
	}
	if lessons == nil {
		lessons = []progress.Lesson{}
	}
	h.writeJSON(w, http.StatusOK, lessons)
}

func (h *handler) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompleteLesson"

	profile, err := h.ledger.CompleteLesson(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, profileResponse{Profile: profile, Level: profile.Level()})
}

func (h *handler) now() time.Time {
	if h.ledger != nil {
		return h.ledger.Now()
	}
	return time.Now()
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw), op)
		return uuid.Nil, false
	}
	return id, true
}

func parseFloatParam(value string, fallback float64) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes the
// error response and returns false.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		case errors.Is(err, io.EOF):
			h.respondErrorWithOp(w, http.StatusBadRequest, "request body is empty", op)
		default:
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		}
		return false
	}
	return true
}

// respondServiceError maps domain errors to HTTP statuses.
func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, progress.ErrUnknownLesson):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidTransaction),
		errors.Is(err, ledger.ErrInvalidGoal),
		errors.Is(err, progress.ErrLessonLocked),
		errors.Is(err, projection.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
