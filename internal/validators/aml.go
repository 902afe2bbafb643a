package validators

import (
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// AMLThreshold flags payments at or above the anti-money-laundering reporting
// threshold for human review, unless the customer has already cleared
// enhanced due diligence. Unlike the other validators it never DENYs — a
// large payment is not itself prohibited, only gated behind a human decision.
type AMLThreshold struct {
	timeout time.Duration
}

func NewAMLThreshold(timeout time.Duration) AMLThreshold {
	return AMLThreshold{timeout: timeout}
}

func (AMLThreshold) Name() string            { return "aml-threshold" }
func (AMLThreshold) RuleID() string          { return "AML_THRESHOLD" }
func (a AMLThreshold) Timeout() time.Duration { return a.timeout }

const amlThresholdEUR = 10000.0

func (a AMLThreshold) Validate(action model.ActionPrimitive) model.ValidatorVerdict {
	p := action.Parameters
	amount, ok := floatParam(p, "amount")
	if !ok {
		return escalate(a.Name(), model.ReasonInsufficientContext, "missing amount")
	}

	if amount >= amlThresholdEUR {
		edd, _ := boolParam(p, "enhanced_due_diligence_passed")
		if !edd {
			return escalate(a.Name(), a.RuleID(), fmt.Sprintf(
				"payment of %.2f EUR meets AML reporting threshold of %.2f EUR without enhanced due diligence",
				amount, amlThresholdEUR))
		}
	}
	return allow(a.Name(), a.RuleID(), "below AML threshold or enhanced due diligence already passed")
}
