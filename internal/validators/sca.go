package validators

import (
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/model"
)

// StrongCustomerAuthentication enforces PSD2 RTS 2018/389: any payment over
// 30 EUR requires strong customer authentication to have already completed.
type StrongCustomerAuthentication struct {
	timeout time.Duration
}

func NewStrongCustomerAuthentication(timeout time.Duration) StrongCustomerAuthentication {
	return StrongCustomerAuthentication{timeout: timeout}
}

func (StrongCustomerAuthentication) Name() string   { return "strong-customer-authentication" }
func (StrongCustomerAuthentication) RuleID() string { return "PSD2 RTS 2018/389" }
func (s StrongCustomerAuthentication) Timeout() time.Duration { return s.timeout }

const scaThresholdEUR = 30.0

func (s StrongCustomerAuthentication) Validate(action model.ActionPrimitive) model.ValidatorVerdict {
	p := action.Parameters
	amount, ok := floatParam(p, "amount")
	if !ok {
		return escalate(s.Name(), model.ReasonInsufficientContext, "missing amount")
	}
	scaCompleted, _ := boolParam(p, "sca_completed")

	if amount > scaThresholdEUR && !scaCompleted {
		return deny(s.Name(), s.RuleID(), fmt.Sprintf(
			"payment of %.2f EUR exceeds SCA exemption threshold of %.2f EUR without completed SCA",
			amount, scaThresholdEUR))
	}
	return allow(s.Name(), s.RuleID(), "SCA requirement satisfied")
}
