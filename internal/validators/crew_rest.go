package validators

import (
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// CrewRest enforces the 14 CFR §121.471 flight-duty-period limit: a crew
// member's accumulated duty time plus the proposed flight must not exceed
// 540 minutes (9 hours).
type CrewRest struct {
	timeout time.Duration
}

func NewCrewRest(timeout time.Duration) CrewRest {
	return CrewRest{timeout: timeout}
}

func (CrewRest) Name() string            { return "crew-rest" }
func (CrewRest) RuleID() string          { return "14 CFR §121.471" }
func (c CrewRest) Timeout() time.Duration { return c.timeout }

const maxDutyMinutes = 540.0

func (c CrewRest) Validate(action model.ActionPrimitive) model.ValidatorVerdict {
	p := action.Parameters
	currentDuty, ok1 := floatParam(p, "current_duty_minutes")
	proposedFlight, ok2 := floatParam(p, "proposed_flight_minutes")
	if !ok1 || !ok2 {
		return escalate(c.Name(), model.ReasonInsufficientContext,
			"missing one of current_duty_minutes, proposed_flight_minutes")
	}

	total := currentDuty + proposedFlight
	if total > maxDutyMinutes {
		return deny(c.Name(), c.RuleID(), fmt.Sprintf(
			"projected duty time %.0f min exceeds %.0f min limit (current %.0f + proposed %.0f)",
			total, maxDutyMinutes, currentDuty, proposedFlight))
	}
	return allow(c.Name(), c.RuleID(), "crew duty time within limit")
}
