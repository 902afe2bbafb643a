// Package validators implements the deterministic domain rule evaluators
// that the Validation Gate dispatches after the semantic authority check
// passes. Every validator is a pure function over an action's parameters: no
// shared state, no mutation of the action, no I/O to the ledger or ontology.
package validators

import (
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// Validator is the uniform contract every domain rule evaluator satisfies.
// Validate must return within Timeout and must not panic on malformed input —
// a validator that cannot compute because a parameter is missing returns
// ESCALATE with ReasonInsufficientContext, not an error.
type Validator interface {
	Name() string
	Timeout() time.Duration
	RuleID() string
	Validate(action model.ActionPrimitive) model.ValidatorVerdict
}

func escalate(name, ruleID, rationale string) model.ValidatorVerdict {
	return model.ValidatorVerdict{
		ValidatorName: name,
		Decision:      model.Escalate,
		RuleID:        ruleID,
		Rationale:     rationale,
		Confidence:    1.0,
	}
}

func deny(name, ruleID, rationale string) model.ValidatorVerdict {
	return model.ValidatorVerdict{
		ValidatorName: name,
		Decision:      model.Deny,
		RuleID:        ruleID,
		Rationale:     rationale,
		Confidence:    1.0,
	}
}

func allow(name, ruleID, rationale string) model.ValidatorVerdict {
	return model.ValidatorVerdict{
		ValidatorName: name,
		Decision:      model.Allow,
		RuleID:        ruleID,
		Rationale:     rationale,
		Confidence:    1.0,
	}
}

// floatParam reads a numeric parameter from an opaque parameters map. JSON
// decoding produces float64 for all numbers, but the accepted types also
// cover int/int64 for callers that construct ActionPrimitive in-process
// (tests, the SDK).
func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func boolParam(params map[string]any, key string) (bool, bool) {
	v, ok := params[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
