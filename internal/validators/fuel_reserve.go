package validators

import (
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// FuelReserve enforces FAA 14 CFR §91.151's minimum fuel reserve: enough fuel
// to fly to the destination plus 30 minutes (45 minutes at night) at normal
// cruise consumption.
type FuelReserve struct {
	timeout time.Duration
}

// NewFuelReserve constructs the fuel-reserve validator with the given
// per-call timeout budget (T_val in the registry's configuration).
func NewFuelReserve(timeout time.Duration) FuelReserve {
	return FuelReserve{timeout: timeout}
}

func (FuelReserve) Name() string        { return "fuel-reserve" }
func (FuelReserve) RuleID() string      { return "FAA 14 CFR §91.151" }
func (f FuelReserve) Timeout() time.Duration { return f.timeout }

func (f FuelReserve) Validate(action model.ActionPrimitive) model.ValidatorVerdict {
	p := action.Parameters
	currentFuel, ok1 := floatParam(p, "current_fuel")
	routeDistance, ok2 := floatParam(p, "route_distance")
	burnRate, ok3 := floatParam(p, "burn_rate")
	night, _ := boolParam(p, "night")
	if !ok1 || !ok2 || !ok3 {
		return escalate(f.Name(), model.ReasonInsufficientContext,
			"missing one of current_fuel, route_distance, burn_rate")
	}

	// burn_rate_per_min is the consumption rate used to size the reserve
	// window; when the caller does not distinguish it from the cruise
	// burn_rate, the two are the same figure.
	burnRatePerMin := burnRate
	if v, ok := floatParam(p, "burn_rate_per_min"); ok {
		burnRatePerMin = v
	}

	reserveMinutes := 30.0
	if night {
		reserveMinutes = 45.0
	}
	required := routeDistance*burnRate + reserveMinutes*burnRatePerMin

	if currentFuel < required {
		return deny(f.Name(), f.RuleID(), fmt.Sprintf(
			"current fuel %.1f below required reserve %.1f (route %.1f nm at %.2f/nm + %.0f min reserve)",
			currentFuel, required, routeDistance, burnRate, reserveMinutes))
	}
	return allow(f.Name(), f.RuleID(), "fuel reserve satisfied")
}
