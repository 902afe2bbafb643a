// Package aggregator implements the conservative-veto policy that turns a
// semantic verdict and an ordered set of validator verdicts into the gate's
// final decision and reason.
package aggregator

import (
	"fmt"

	"github.com/vigil-governance/vigil/internal/model"
)

// Aggregate applies the conservative-veto algorithm in the fixed order
// spec'd: semantic denial dominates, then any validator denial (first in
// registry order), then any validator escalation (first in registry order),
// then low semantic coverage, and finally ALLOW. validatorResults must
// already be in registry order — Aggregate does not sort them.
func Aggregate(semantic model.SemanticVerdict, validatorResults []model.ValidatorVerdict, coverageFloor float64) (model.Decision, string) {
	if semantic.Decision == model.Deny {
		return model.Deny, semantic.Reason
	}

	for _, v := range validatorResults {
		if v.Decision == model.Deny {
			return model.Deny, fmt.Sprintf("%s: %s", v.RuleID, v.Rationale)
		}
	}

	for _, v := range validatorResults {
		if v.Decision == model.Escalate {
			return model.Escalate, fmt.Sprintf("%s: %s", v.RuleID, v.Rationale)
		}
	}

	if semantic.Coverage < coverageFloor {
		return model.Escalate, model.ReasonLowSemanticCoverage
	}

	return model.Allow, model.ReasonAllValidatorsPassed
}
