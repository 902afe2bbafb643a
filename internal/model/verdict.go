package model

import "time"

// Decision is the three-valued outcome the gate can return for an action.
type Decision string

const (
	Allow    Decision = "ALLOW"
	Deny     Decision = "DENY"
	Escalate Decision = "ESCALATE"
)

// SemanticVerdict is the result of the Ontology Client's authority check.
// Coverage is the fraction of the action's parameters the ontology recognizes
// as governed; 1.0 means the verb and every parameter have declared governance.
type SemanticVerdict struct {
	Decision            Decision `json:"decision"`
	OntologyMatch       bool     `json:"ontology_match"`
	MaturityAuthorized  bool     `json:"maturity_authorized"`
	Coverage            float64  `json:"coverage"`
	Reason              string   `json:"reason"`
	RequiresValidation  bool     `json:"requires_validation"`
}

// ValidatorVerdict is the result of one domain validator run against an action.
// Confidence is fixed at 1.0 by contract: validators are deterministic, never
// probabilistic, so there is no graded confidence to report.
type ValidatorVerdict struct {
	ValidatorName string   `json:"validator_name"`
	Decision      Decision `json:"decision"`
	RuleID        string   `json:"rule_id"`
	Rationale     string   `json:"rationale"`
	LatencyMS     float64  `json:"latency_ms"`
	Confidence    float64  `json:"confidence"`
}

// Regulatory citations and rule IDs used by the boundary conditions a
// validator hits when it cannot run to completion. These are recorded by the
// gate's dispatcher, not by the validator itself.
const (
	RuleTimeout   = "TIMEOUT"
	RuleException = "EXCEPTION"
)

// ComponentTimings records the elapsed wall time of each pipeline stage, in
// milliseconds. Stages that were short-circuited and never ran are left zero.
type ComponentTimings struct {
	HealthMS     float64 `json:"health"`
	SemanticMS   float64 `json:"semantic"`
	ValidatorsMS float64 `json:"validators"`
	SignMS       float64 `json:"sign"`
	PersistMS    float64 `json:"persist"`
}

// Verdict is the final, signed output of the Validation Gate for one
// ActionPrimitive. Once emitted it must not be mutated: any downstream change
// invalidates the signature.
type Verdict struct {
	TraceID           string             `json:"trace_id"`
	Decision          Decision           `json:"decision"`
	Reason            string             `json:"reason"`
	Action            ActionPrimitive    `json:"action"`
	AgentID           string             `json:"agent_id,omitempty"`
	AgentMaturity     MaturityLevel      `json:"agent_maturity"`
	Semantic          SemanticVerdict    `json:"semantic"`
	ValidatorResults  []ValidatorVerdict `json:"validator_results"`
	GovernanceLatency float64            `json:"governance_latency_ms"`
	ComponentTimings  ComponentTimings   `json:"component_timings"`
	Certifiable       bool               `json:"certifiable"`
	Signature         string             `json:"signature"`
	EmittedAt         time.Time          `json:"emitted_at"`
}

// SignedFields is the fixed subset of Verdict fields the Signer computes its
// keyed MAC over, in sorted key order. ValidatorName is always "gate" here —
// it distinguishes a gate-level signature from any future per-validator
// signing scheme.
type SignedFields struct {
	Decision      Decision `json:"decision"`
	Reason        string   `json:"reason"`
	TraceID       string   `json:"trace_id"`
	ValidatorName string   `json:"validator_name"`
}

// ForSigning extracts the canonical signed-field subset from a Verdict.
func (v Verdict) ForSigning() SignedFields {
	return SignedFields{
		Decision:      v.Decision,
		Reason:        v.Reason,
		TraceID:       v.TraceID,
		ValidatorName: "gate",
	}
}
