package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigil-governance/vigil/internal/aggregator"
	"github.com/vigil-governance/vigil/internal/model"
)

func semanticAllow(coverage float64) model.SemanticVerdict {
	return model.SemanticVerdict{
		Decision: model.Allow, OntologyMatch: true, MaturityAuthorized: true,
		Coverage: coverage, Reason: model.ReasonSemanticOK,
	}
}

func TestSemanticDenyDominates(t *testing.T) {
	semantic := model.SemanticVerdict{Decision: model.Deny, Reason: model.ReasonUnknownVerb}
	decision, reason := aggregator.Aggregate(semantic, []model.ValidatorVerdict{
		{Decision: model.Allow},
	}, 0.8)
	assert.Equal(t, model.Deny, decision)
	assert.Equal(t, model.ReasonUnknownVerb, reason)
}

func TestAllAllowAboveFloorYieldsAllow(t *testing.T) {
	decision, reason := aggregator.Aggregate(semanticAllow(1.0), []model.ValidatorVerdict{
		{Decision: model.Allow}, {Decision: model.Allow},
	}, 0.8)
	assert.Equal(t, model.Allow, decision)
	assert.Equal(t, model.ReasonAllValidatorsPassed, reason)
}

func TestDenyDominatesEscalate(t *testing.T) {
	decision, reason := aggregator.Aggregate(semanticAllow(1.0), []model.ValidatorVerdict{
		{Decision: model.Escalate, RuleID: "AML_THRESHOLD", Rationale: "over threshold"},
		{Decision: model.Deny, RuleID: "FAA 14 CFR §91.151", Rationale: "insufficient fuel"},
	}, 0.8)
	assert.Equal(t, model.Deny, decision)
	assert.Contains(t, reason, "FAA 14 CFR §91.151")
}

func TestEscalateDominatesAllow(t *testing.T) {
	decision, reason := aggregator.Aggregate(semanticAllow(1.0), []model.ValidatorVerdict{
		{Decision: model.Allow},
		{Decision: model.Escalate, RuleID: "AML_THRESHOLD", Rationale: "over threshold"},
	}, 0.8)
	assert.Equal(t, model.Escalate, decision)
	assert.Contains(t, reason, "AML_THRESHOLD")
}

func TestFirstInRegistryOrderWinsRegardlessOfPosition(t *testing.T) {
	// Two DENYs: the first in registry order must be surfaced, not the
	// "most severe" or the last one evaluated.
	decision, reason := aggregator.Aggregate(semanticAllow(1.0), []model.ValidatorVerdict{
		{Decision: model.Deny, RuleID: "14 CFR §121.471", Rationale: "duty time exceeded"},
		{Decision: model.Deny, RuleID: "FAA 14 CFR §91.151", Rationale: "insufficient fuel"},
	}, 0.8)
	assert.Equal(t, model.Deny, decision)
	assert.Contains(t, reason, "14 CFR §121.471")
	assert.NotContains(t, reason, "91.151")
}

func TestLowCoverageEscalates(t *testing.T) {
	decision, reason := aggregator.Aggregate(semanticAllow(0.5), nil, 0.8)
	assert.Equal(t, model.Escalate, decision)
	assert.Equal(t, model.ReasonLowSemanticCoverage, reason)
}

func TestEmptyValidatorResultsWithSufficientCoverageAllows(t *testing.T) {
	decision, reason := aggregator.Aggregate(semanticAllow(1.0), nil, 0.8)
	assert.Equal(t, model.Allow, decision)
	assert.Equal(t, model.ReasonAllValidatorsPassed, reason)
}
