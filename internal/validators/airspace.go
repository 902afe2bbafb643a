package validators

import (
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// Airspace enforces minimum safe altitude by terrain type and rejects any
// route that intersects a restricted zone. It carries no single regulatory
// citation as crisp as the other aviation validators; RuleID names the
// internal policy instead.
type Airspace struct {
	timeout time.Duration
}

func NewAirspace(timeout time.Duration) Airspace {
	return Airspace{timeout: timeout}
}

func (Airspace) Name() string            { return "airspace" }
func (Airspace) RuleID() string          { return "AIRSPACE_MSA" }
func (a Airspace) Timeout() time.Duration { return a.timeout }

// minSafeAltitude maps terrain_type to the minimum safe altitude in feet.
// Unknown terrain types are treated as mountainous (the most conservative
// bound) rather than rejected outright.
var minSafeAltitude = map[string]float64{
	"water":       500,
	"flat":        1000,
	"urban":       1500,
	"mountainous": 2000,
}

func (a Airspace) Validate(action model.ActionPrimitive) model.ValidatorVerdict {
	p := action.Parameters
	altitude, ok := floatParam(p, "altitude")
	if !ok {
		return escalate(a.Name(), model.ReasonInsufficientContext, "missing altitude")
	}

	if restricted, present := boolParam(p, "in_restricted_zone"); present && restricted {
		zone, _ := stringParam(p, "restricted_zone_id")
		if zone == "" {
			zone = "unspecified"
		}
		return deny(a.Name(), a.RuleID(), fmt.Sprintf("route intersects restricted zone %s", zone))
	}

	terrain, _ := stringParam(p, "terrain_type")
	minAlt, known := minSafeAltitude[terrain]
	if !known {
		minAlt = minSafeAltitude["mountainous"]
	}
	if altitude < minAlt {
		return deny(a.Name(), a.RuleID(), fmt.Sprintf(
			"altitude %.0f ft below minimum safe altitude %.0f ft for terrain %q", altitude, minAlt, terrain))
	}
	return allow(a.Name(), a.RuleID(), "altitude clear of minimum safe altitude and restricted zones")
}
