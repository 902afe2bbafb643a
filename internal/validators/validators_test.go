package validators_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-governance/vigil/internal/model"
	"github.com/vigil-governance/vigil/internal/validators"
)

const testTimeout = 150 * time.Millisecond

func TestFuelReserve(t *testing.T) {
	v := validators.NewFuelReserve(testTimeout)
	require.Equal(t, "fuel-reserve", v.Name())
	require.Equal(t, "FAA 14 CFR §91.151", v.RuleID())

	tests := []struct {
		name   string
		params map[string]any
		want   model.Decision
	}{
		{
			name: "sufficient reserve",
			params: map[string]any{
				"current_fuel": 3000.0, "route_distance": 500.0, "burn_rate": 5.0, "night": false,
			},
			want: model.Allow,
		},
		{
			name: "insufficient reserve",
			params: map[string]any{
				"current_fuel": 2000.0, "route_distance": 500.0, "burn_rate": 5.0, "night": false,
			},
			want: model.Deny,
		},
		{
			name: "night reserve raises requirement",
			params: map[string]any{
				"current_fuel": 2650.0, "route_distance": 500.0, "burn_rate": 5.0, "night": true,
			},
			want: model.Deny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(model.ActionPrimitive{Parameters: tt.params})
			assert.Equal(t, tt.want, got.Decision)
			assert.Equal(t, 1.0, got.Confidence)
			if tt.want == model.Deny {
				assert.Contains(t, got.Rationale, "required")
				assert.Equal(t, v.RuleID(), got.RuleID)
			}
		})
	}

	missing := v.Validate(model.ActionPrimitive{Parameters: map[string]any{"current_fuel": 100.0}})
	assert.Equal(t, model.Escalate, missing.Decision)
	assert.Equal(t, model.ReasonInsufficientContext, missing.RuleID)
}

func TestCrewRest(t *testing.T) {
	v := validators.NewCrewRest(testTimeout)
	require.Equal(t, "14 CFR §121.471", v.RuleID())

	allowed := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"current_duty_minutes": 400.0, "proposed_flight_minutes": 60.0,
	}})
	assert.Equal(t, model.Allow, allowed.Decision)

	denied := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"current_duty_minutes": 520.0, "proposed_flight_minutes": 60.0,
	}})
	assert.Equal(t, model.Deny, denied.Decision)
	assert.Contains(t, denied.Rationale, "580")
}

func TestAirspace(t *testing.T) {
	v := validators.NewAirspace(testTimeout)

	below := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"altitude": 500.0, "terrain_type": "mountainous",
	}})
	assert.Equal(t, model.Deny, below.Decision)

	clear := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"altitude": 3000.0, "terrain_type": "mountainous",
	}})
	assert.Equal(t, model.Allow, clear.Decision)

	restricted := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"altitude": 5000.0, "terrain_type": "flat", "in_restricted_zone": true, "restricted_zone_id": "R-4808N",
	}})
	assert.Equal(t, model.Deny, restricted.Decision)
	assert.Contains(t, restricted.Rationale, "R-4808N")
}

func TestStrongCustomerAuthentication(t *testing.T) {
	v := validators.NewStrongCustomerAuthentication(testTimeout)
	require.Equal(t, "PSD2 RTS 2018/389", v.RuleID())

	denied := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 350.0, "sca_completed": false,
	}})
	assert.Equal(t, model.Deny, denied.Decision)

	allowedSmall := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 20.0, "sca_completed": false,
	}})
	assert.Equal(t, model.Allow, allowedSmall.Decision)

	allowedSCA := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 350.0, "sca_completed": true,
	}})
	assert.Equal(t, model.Allow, allowedSCA.Decision)
}

func TestAMLThreshold(t *testing.T) {
	v := validators.NewAMLThreshold(testTimeout)

	escalated := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 15000.0,
	}})
	assert.Equal(t, model.Escalate, escalated.Decision)

	cleared := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 15000.0, "enhanced_due_diligence_passed": true,
	}})
	assert.Equal(t, model.Allow, cleared.Decision)

	belowThreshold := v.Validate(model.ActionPrimitive{Parameters: map[string]any{
		"amount": 500.0,
	}})
	assert.Equal(t, model.Allow, belowThreshold.Decision)
}

func TestMissingParametersEscalate(t *testing.T) {
	vs := []validators.Validator{
		validators.NewFuelReserve(testTimeout),
		validators.NewCrewRest(testTimeout),
		validators.NewAirspace(testTimeout),
		validators.NewStrongCustomerAuthentication(testTimeout),
		validators.NewAMLThreshold(testTimeout),
	}
	for _, v := range vs {
		got := v.Validate(model.ActionPrimitive{Parameters: map[string]any{}})
		assert.Equal(t, model.Escalate, got.Decision, "%s should escalate on empty parameters", v.Name())
		assert.Equal(t, model.ReasonInsufficientContext, got.RuleID)
	}
}
