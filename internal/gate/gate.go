// Package gate implements the Validation Gate: the orchestrator that turns
// one proposed ActionPrimitive into a signed, persisted Verdict. It is the
// only component that sequences the health probe, semantic check, validator
// dispatch, aggregation, signing, and ledger persistence described in
// spec.md §4.1 — every other package in this module is a pure function or a
// narrow client that the gate wires together under per-stage deadlines.
//
// Evaluate never returns an error and never panics past its own boundary: a
// recovered panic, a cancelled context, or any subsystem failure all surface
// as a DENY verdict. This is the fail-closed proof obligation — for every
// action and every internal failure mode, Evaluate emits decision = DENY.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vigil-governance/vigil/internal/aggregator"
	"github.com/vigil-governance/vigil/internal/model"
	"github.com/vigil-governance/vigil/internal/ontology"
	"github.com/vigil-governance/vigil/internal/validators"
)

// Registry is the gate's view of internal/registry.Registry, narrowed to
// Lookup so tests can inject a registry carrying validator doubles (e.g. one
// that panics, to exercise the EXCEPTION rule) without a real dispatch
// table.
type Registry interface {
	Lookup(domain, verb string) []validators.Validator
}

// Signer is the gate's view of internal/signer.Signer, narrowed to the one
// method the pipeline needs so tests can inject a signer that fails.
type Signer interface {
	Sign(v model.Verdict) (string, error)
}

// Ledger is the gate's view of internal/ledger.DB, narrowed to Append so
// tests can inject a ledger that fails without a Postgres instance.
type Ledger interface {
	Append(ctx context.Context, v model.Verdict) error
}

// Limiter is the gate's view of internal/ratelimit.MemoryLimiter, used for
// the OVERLOAD backpressure path. A nil Limiter passed to New disables the
// check entirely.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the stage deadlines and policy constants from spec.md §6.
// All durations are independent per-stage budgets. Total bounds the stages
// from the health probe through validator dispatch; signing and the ledger
// write run after that budget, the write under its own Persist deadline.
type Config struct {
	Total          time.Duration // T_total, default 200ms
	Health         time.Duration // T_h, deadline for one uncached ping
	HealthCacheTTL time.Duration // T_cache, default 30s
	Semantic       time.Duration // T_sem, default 500ms
	Persist        time.Duration // T_persist, default 50ms
	CoverageFloor  float64       // COVERAGE_FLOOR, default 0.8
}

// DefaultConfig returns the stage deadlines named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		Total:          200 * time.Millisecond,
		Health:         50 * time.Millisecond,
		HealthCacheTTL: 30 * time.Second,
		Semantic:       500 * time.Millisecond,
		Persist:        50 * time.Millisecond,
		CoverageFloor:  0.8,
	}
}

// Gate is the Validation Gate orchestrator. One Gate is shared across all
// in-flight requests; it holds no per-request state outside of Evaluate's
// own stack.
type Gate struct {
	ontology ontology.Client
	registry Registry
	signer   Signer
	ledger   Ledger
	limiter  Limiter
	cfg      Config
	health   *healthCache
	logger   *slog.Logger
}

// New constructs a Gate. limiter may be nil to disable the OVERLOAD check.
func New(ontologyClient ontology.Client, reg Registry, signer Signer, ledger Ledger, limiter Limiter, cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		ontology: ontologyClient,
		registry: reg,
		signer:   signer,
		ledger:   ledger,
		limiter:  limiter,
		cfg:      cfg,
		health:   newHealthCache(cfg.HealthCacheTTL),
		logger:   logger,
	}
}

// Evaluate is the Validation Gate's one operation: evaluate(action,
// agent_context) -> Verdict. It never throws. The stages up to and including
// validator dispatch run under cfg.Total; signing and the ledger write follow,
// the write under its own cfg.Persist deadline, so a call can last up to
// about cfg.Total plus signing time plus cfg.Persist.
func (g *Gate) Evaluate(ctx context.Context, action model.ActionPrimitive, agent model.AgentContext) (verdict model.Verdict) {
	start := time.Now()

	traceID := agent.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	verdict = model.Verdict{
		TraceID:       traceID,
		Action:        action,
		AgentID:       agent.AgentID,
		AgentMaturity: agent.MaturityLevel,
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("gate: recovered panic", "trace_id", traceID, "panic", r)
			verdict = g.finish(verdict, model.Deny, model.ReasonGateInternalError, model.SemanticVerdict{}, nil, model.ComponentTimings{}, start)
		}
	}()

	if g.limiter != nil {
		allowed, err := g.limiter.Allow(ctx, agent.AgentID)
		if err != nil {
			// Fail open on the limiter itself: OVERLOAD protects the gate
			// from queue buildup, it is not part of the fail-closed
			// decision pipeline below.
			g.logger.Warn("gate: limiter error, allowing request", "trace_id", traceID, "error", err)
		} else if !allowed {
			return g.finish(verdict, model.Deny, model.ReasonOverload, model.SemanticVerdict{}, nil, model.ComponentTimings{}, start)
		}
	}

	budgetCtx, cancel := context.WithTimeout(ctx, g.cfg.Total)
	defer cancel()

	var timings model.ComponentTimings

	// 1. Health probe.
	healthStart := time.Now()
	healthy := g.healthy(budgetCtx)
	timings.HealthMS = elapsedMS(healthStart)
	if !healthy {
		return g.finish(verdict, model.Deny, model.ReasonValidatorUnhealthy, model.SemanticVerdict{}, nil, timings, start)
	}

	// 2. Semantic check.
	semStart := time.Now()
	semCtx, semCancel := context.WithTimeout(budgetCtx, g.cfg.Semantic)
	semantic, semErr := g.ontology.ValidateSemanticAuthority(semCtx, action, agent.MaturityLevel)
	semCancel()
	timings.SemanticMS = elapsedMS(semStart)

	if semErr != nil {
		reason := model.ReasonSemanticError
		if errors.Is(semErr, context.DeadlineExceeded) {
			reason = model.ReasonSemanticTimeout
		}
		return g.finish(verdict, model.Deny, reason, model.SemanticVerdict{}, nil, timings, start)
	}
	if semantic.Decision == model.Deny {
		return g.finish(verdict, model.Deny, semantic.Reason, semantic, nil, timings, start)
	}

	if budgetCtx.Err() != nil {
		return g.finish(verdict, model.Deny, model.ReasonGateTimeout, semantic, nil, timings, start)
	}

	// 3. Validator dispatch.
	valList := g.registry.Lookup(action.Domain, action.Verb)
	if len(valList) == 0 {
		if semantic.RequiresValidation {
			return g.finish(verdict, model.Deny, model.ReasonNoValidators, semantic, nil, timings, start)
		}
		return g.finish(verdict, model.Allow, model.ReasonAllValidatorsPassed, semantic, nil, timings, start)
	}

	// 4. Parallel evaluation, re-ordered into registry order.
	valStart := time.Now()
	results := g.runValidators(budgetCtx, valList, action)
	timings.ValidatorsMS = elapsedMS(valStart)

	if budgetCtx.Err() != nil {
		return g.finish(verdict, model.Deny, model.ReasonGateTimeout, semantic, results, timings, start)
	}

	// 5. Aggregation.
	decision, reason := aggregator.Aggregate(semantic, results, g.cfg.CoverageFloor)

	return g.finish(verdict, decision, reason, semantic, results, timings, start)
}

// healthy consults the TTL cache before issuing an uncached ping.
func (g *Gate) healthy(ctx context.Context) bool {
	if h, fresh := g.health.get(); fresh {
		return h
	}
	probeCtx, cancel := context.WithTimeout(ctx, g.cfg.Health)
	defer cancel()
	err := g.ontology.Ping(probeCtx)
	healthy := err == nil
	g.health.set(healthy)
	if err != nil {
		g.logger.Warn("gate: health probe failed", "error", err)
	}
	return healthy
}

// runValidators fans the action out to every validator concurrently with a
// bounded-worker errgroup: each goroutine writes into its own index of a
// pre-sized slice and always returns a nil error, since per-validator
// failure is recorded as a DENY verdict rather than aborting the group.
func (g *Gate) runValidators(ctx context.Context, list []validators.Validator, action model.ActionPrimitive) []model.ValidatorVerdict {
	results := make([]model.ValidatorVerdict, len(list))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(len(list))

	for i, v := range list {
		i, v := i, v
		eg.Go(func() error {
			results[i] = g.runOne(egCtx, v, action)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// runOne runs a single validator under its own declared timeout, recording
// a panic as a DENY with rule ID EXCEPTION and a missed deadline as a DENY
// with rule ID TIMEOUT. The
// validator's goroutine is not force-killed on timeout — Go has no
// mechanism for that — but its result is discarded; the buffered channel
// absorbs the late write so the goroutine does not leak.
func (g *Gate) runOne(ctx context.Context, v validators.Validator, action model.ActionPrimitive) model.ValidatorVerdict {
	valCtx, cancel := context.WithTimeout(ctx, v.Timeout())
	defer cancel()

	done := make(chan model.ValidatorVerdict, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- model.ValidatorVerdict{
					ValidatorName: v.Name(),
					Decision:      model.Deny,
					RuleID:        model.RuleException,
					Rationale:     fmt.Sprintf("%v", r),
				}
			}
		}()
		done <- v.Validate(action)
	}()

	select {
	case result := <-done:
		return result
	case <-valCtx.Done():
		g.logger.Warn("gate: validator timeout", "validator", v.Name(), "timeout", v.Timeout())
		return model.ValidatorVerdict{
			ValidatorName: v.Name(),
			Decision:      model.Deny,
			RuleID:        model.RuleTimeout,
			Rationale:     fmt.Sprintf("%s exceeded %s", v.Name(), v.Timeout()),
		}
	}
}

// finish runs the two stages every exit path shares — sign then persist —
// and assembles the final Verdict. A signing failure forces DENY
// SIGNATURE_ERROR with an empty signature; a persist failure forces DENY
// LEDGER_ERROR and certifiable=false, but the verdict is still returned to
// the caller in both cases per spec.md §4.1.
func (g *Gate) finish(v model.Verdict, decision model.Decision, reason string, semantic model.SemanticVerdict, results []model.ValidatorVerdict, timings model.ComponentTimings, start time.Time) model.Verdict {
	v.Decision = decision
	v.Reason = reason
	v.Semantic = semantic
	v.ValidatorResults = results
	v.EmittedAt = time.Now().UTC()

	semanticTimedOut := reason == model.ReasonSemanticTimeout

	// 6. Signing.
	signStart := time.Now()
	sig, err := g.signer.Sign(v)
	timings.SignMS = elapsedMS(signStart)
	if err != nil {
		g.logger.Error("gate: signing failed", "trace_id", v.TraceID, "error", err)
		v.Decision = model.Deny
		v.Reason = model.ReasonSignatureError
		v.Signature = ""
	} else {
		v.Signature = sig
	}

	// 7. Persist. Uses a fresh context rather than the (possibly already
	// cancelled) request context: the write must still happen so the
	// ledger record exists even when the governance budget ran out.
	persistStart := time.Now()
	persistCtx, persistCancel := context.WithTimeout(context.Background(), g.cfg.Persist)
	persistErr := g.ledger.Append(persistCtx, v)
	persistCancel()
	timings.PersistMS = elapsedMS(persistStart)

	v.ComponentTimings = timings
	v.GovernanceLatency = timings.HealthMS + timings.SemanticMS + timings.ValidatorsMS + timings.SignMS + timings.PersistMS

	if persistErr != nil {
		g.logger.Error("gate: ledger append failed, verdict unpersisted", "trace_id", v.TraceID, "error", persistErr)
		v.Decision = model.Deny
		v.Reason = model.ReasonLedgerError
		v.Certifiable = false
		// Re-sign over the corrected decision so a non-empty signature
		// never describes a different verdict than the one it travels
		// with.
		if resig, resigErr := g.signer.Sign(v); resigErr == nil {
			v.Signature = resig
		} else {
			v.Signature = ""
		}
		g.logger.Debug("gate: verdict", "trace_id", v.TraceID, "decision", v.Decision, "reason", v.Reason, "wall_ms", elapsedMS(start))
		return v
	}

	v.Certifiable = v.Signature != "" &&
		v.GovernanceLatency <= float64(g.cfg.Total.Milliseconds()) &&
		!semanticTimedOut

	g.logger.Debug("gate: verdict", "trace_id", v.TraceID, "decision", v.Decision, "reason", v.Reason, "wall_ms", elapsedMS(start))
	return v
}

func elapsedMS(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000.0
}
