package vigil

import "time"

// ActionPrimitive is the proposed action submitted to the gate for
// evaluation, mirroring internal/model.ActionPrimitive on the server.
type ActionPrimitive struct {
	Verb       string         `json:"verb"`
	Resource   string         `json:"resource"`
	Domain     string         `json:"domain"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AgentContext identifies the calling agent and its authorized maturity
// level, mirroring internal/model.AgentContext.
type AgentContext struct {
	AgentID        string    `json:"agent_id"`
	MaturityLevel  int       `json:"maturity_level"`
	TraceID        string    `json:"trace_id,omitempty"`
	SubmissionTime time.Time `json:"submission_time,omitempty"`
}

// SemanticVerdict is the ontology's semantic authority check result.
type SemanticVerdict struct {
	Decision           string  `json:"decision"`
	OntologyMatch      bool    `json:"ontology_match"`
	MaturityAuthorized bool    `json:"maturity_authorized"`
	Coverage           float64 `json:"coverage"`
	Reason             string  `json:"reason"`
	RequiresValidation bool    `json:"requires_validation"`
}

// ValidatorVerdict is one domain validator's result. Confidence is fixed at
// 1.0 by contract: validators are deterministic, never probabilistic.
type ValidatorVerdict struct {
	ValidatorName string  `json:"validator_name"`
	Decision      string  `json:"decision"`
	RuleID        string  `json:"rule_id"`
	Rationale     string  `json:"rationale"`
	LatencyMS     float64 `json:"latency_ms"`
	Confidence    float64 `json:"confidence"`
}

// ComponentTimings breaks down the gate's per-stage latency, in milliseconds.
type ComponentTimings struct {
	HealthMS     float64 `json:"health"`
	SemanticMS   float64 `json:"semantic"`
	ValidatorsMS float64 `json:"validators"`
	SignMS       float64 `json:"sign"`
	PersistMS    float64 `json:"persist"`
}

// Verdict is the gate's signed, ledgered decision for one action. Once
// emitted it is never mutated: any downstream change would invalidate the
// signature.
type Verdict struct {
	TraceID           string             `json:"trace_id"`
	Decision          string             `json:"decision"`
	Reason            string             `json:"reason"`
	Action            ActionPrimitive    `json:"action"`
	AgentID           string             `json:"agent_id,omitempty"`
	AgentMaturity     int                `json:"agent_maturity"`
	Semantic          SemanticVerdict    `json:"semantic"`
	ValidatorResults  []ValidatorVerdict `json:"validator_results"`
	GovernanceLatency float64            `json:"governance_latency_ms"`
	ComponentTimings  ComponentTimings   `json:"component_timings"`
	Certifiable       bool               `json:"certifiable"`
	Signature         string             `json:"signature"`
	EmittedAt         time.Time          `json:"emitted_at"`
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Action ActionPrimitive `json:"action"`
	Agent  AgentContext    `json:"agent"`
}

// ValidateResponse is the body returned by POST /validate.
type ValidateResponse struct {
	Verdict Verdict `json:"verdict"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status            string `json:"status"`
	OntologyReachable bool   `json:"ontology_reachable"`
}
