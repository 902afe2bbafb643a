package ontology_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-governance/vigil/internal/model"
	"github.com/vigil-governance/vigil/internal/ontology"
)

func rerouteAction() ontology.FakeAction {
	return ontology.FakeAction{
		Domain: "aviation", Verb: "reroute_flight", RequiredMaturity: 3, RequiresValidation: true,
		GovernedParameters: []string{"current_fuel", "route_distance", "burn_rate", "night"},
	}
}

func TestUnknownVerb(t *testing.T) {
	c := ontology.NewFakeClient(rerouteAction())
	v, err := c.ValidateSemanticAuthority(context.Background(), model.ActionPrimitive{
		Domain: "aviation", Verb: "teleport_aircraft",
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, model.Deny, v.Decision)
	assert.False(t, v.OntologyMatch)
	assert.Equal(t, model.ReasonUnknownVerb, v.Reason)
}

func TestMaturityViolation(t *testing.T) {
	c := ontology.NewFakeClient(rerouteAction())
	v, err := c.ValidateSemanticAuthority(context.Background(), model.ActionPrimitive{
		Domain: "aviation", Verb: "reroute_flight",
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Deny, v.Decision)
	assert.True(t, v.OntologyMatch)
	assert.False(t, v.MaturityAuthorized)
	assert.Contains(t, v.Reason, model.ReasonAMMViolation)
	assert.Contains(t, v.Reason, "L3")
}

func TestFullCoverageAllows(t *testing.T) {
	c := ontology.NewFakeClient(rerouteAction())
	v, err := c.ValidateSemanticAuthority(context.Background(), model.ActionPrimitive{
		Domain: "aviation", Verb: "reroute_flight",
		Parameters: map[string]any{"current_fuel": 2000.0, "route_distance": 500.0, "burn_rate": 5.0, "night": false},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, model.Allow, v.Decision)
	assert.Equal(t, 1.0, v.Coverage)
	assert.Equal(t, model.ReasonSemanticOK, v.Reason)
}

func TestPartialCoverage(t *testing.T) {
	c := ontology.NewFakeClient(rerouteAction())
	v, err := c.ValidateSemanticAuthority(context.Background(), model.ActionPrimitive{
		Domain: "aviation", Verb: "reroute_flight",
		Parameters: map[string]any{"current_fuel": 2000.0, "unknown_param": "x"},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, model.Allow, v.Decision)
	assert.Equal(t, 0.5, v.Coverage)
}

func TestNoParametersFullCoverage(t *testing.T) {
	c := ontology.NewFakeClient(rerouteAction())
	v, err := c.ValidateSemanticAuthority(context.Background(), model.ActionPrimitive{
		Domain: "aviation", Verb: "reroute_flight",
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Coverage)
}

func TestPingReflectsHealthState(t *testing.T) {
	c := ontology.NewFakeClient()
	require.NoError(t, c.Ping(context.Background()))

	c.SetHealthy(false)
	assert.ErrorIs(t, c.Ping(context.Background()), ontology.ErrUnhealthy)
}
