package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vigil-governance/vigil/internal/gate"
	"github.com/vigil-governance/vigil/internal/model"
)

// OntologyPinger and LedgerPinger let /health and /readyz report downstream
// reachability without importing the concrete ontology/ledger packages.
type OntologyPinger interface {
	Ping(ctx context.Context) error
}

type LedgerPinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	gate     *gate.Gate
	ontology OntologyPinger
	ledger   LedgerPinger
	logger   *slog.Logger

	maxRequestBodyBytes int64
	completeFailClosed  bool
}

// HandlersDeps are the constructor arguments for NewHandlers.
type HandlersDeps struct {
	Gate                *gate.Gate
	Ontology            OntologyPinger
	Ledger              LedgerPinger
	Logger              *slog.Logger
	MaxRequestBodyBytes int64

	// CompleteFailClosed mirrors config.Config.CompleteFailClosed (spec.md
	// §6): when true, a ledger-write failure is surfaced as a 5xx instead of
	// the gate's normal DENY LEDGER_ERROR verdict. Off by default, since a
	// 5xx here means the caller must itself decide what to do with an
	// action the gate never durably recorded — a stronger failure mode than
	// the gate's usual fail-closed DENY.
	CompleteFailClosed bool
}

func NewHandlers(deps HandlersDeps) *Handlers {
	maxBytes := deps.MaxRequestBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20 // 1 MiB: action payloads are small, structured primitives
	}
	return &Handlers{
		gate:                deps.Gate,
		ontology:            deps.Ontology,
		completeFailClosed:  deps.CompleteFailClosed,
		ledger:              deps.Ledger,
		logger:              deps.Logger,
		maxRequestBodyBytes: maxBytes,
	}
}

// HandleValidate handles POST /validate, the Validation Gate's sole
// decision-bearing endpoint. The HTTP status is 200 once the request body
// parses: DENY and ESCALATE are ordinary verdicts, not transport errors. The
// one exception is COMPLETE_FAIL_CLOSED: with it set, a verdict whose reason
// is LEDGER_ERROR is answered with 503 instead. Any other 4xx/5xx here means
// the gate never got to evaluate the action at all.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Agent.TraceID == "" {
		req.Agent.TraceID = RequestIDFromContext(r.Context())
	}

	verdict := h.gate.Evaluate(r.Context(), req.Action, req.Agent)

	if h.completeFailClosed && verdict.Reason == model.ReasonLedgerError {
		h.logger.Error("gate: ledger unavailable, COMPLETE_FAIL_CLOSED escalating to 5xx",
			"trace_id", verdict.TraceID)
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "ledger unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, model.ValidateResponse{Verdict: verdict})
}

// HandleHealth handles GET /health: spec.md §6's {status, ontology_reachable}.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	reachable := h.ontology.Ping(r.Context()) == nil
	status := "healthy"
	if !reachable {
		status = "degraded"
	}
	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:            status,
		OntologyReachable: reachable,
	})
}

// HandleReady handles GET /readyz: ambient infrastructure for orchestrators,
// checking both downstream dependencies the gate itself relies on.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ontologyOK := h.ontology.Ping(ctx) == nil
	ledgerOK := h.ledger.Ping(ctx) == nil

	status := "ready"
	if !ontologyOK || !ledgerOK {
		status = "not_ready"
	}
	writeJSON(w, r, http.StatusOK, model.ReadyResponse{
		Status:            status,
		OntologyReachable: ontologyOK,
		LedgerReachable:   ledgerOK,
	})
}

// decodeJSON decodes a JSON request body into target, rejecting unknown
// fields and bounding the body size.
func decodeJSON(r *http.Request, target any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Data: data,
		Meta: responseMeta(r),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIError{
		Error: model.ErrorDetail{Code: code, Message: message},
		Meta:  responseMeta(r),
	})
}

func responseMeta(r *http.Request) model.ResponseMeta {
	return model.ResponseMeta{
		RequestID: RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}
