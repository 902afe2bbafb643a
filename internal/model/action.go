// Package model holds the core data types shared across the Validation Gate:
// the inbound action descriptor, the agent context it arrives with, and the
// verdicts produced by each pipeline stage.
package model

import "time"

// ActionPrimitive is a structured intent proposed by an upstream agent.
// It is immutable after construction: once accepted by the gate, none of its
// fields are mutated by any pipeline stage.
type ActionPrimitive struct {
	Verb       string         `json:"verb"`
	Resource   string         `json:"resource"`
	Domain     string         `json:"domain"`
	Parameters map[string]any `json:"parameters"`
}

// MaturityLevel classifies the autonomy level an agent has been granted.
// Higher levels may attempt actions that require more governance trust.
type MaturityLevel int

const (
	MaturityMin MaturityLevel = 1
	MaturityMax MaturityLevel = 5
)

// Valid reports whether the maturity level falls within the defined range {1..5}.
func (m MaturityLevel) Valid() bool {
	return m >= MaturityMin && m <= MaturityMax
}

// AgentContext identifies the caller proposing an action and carries the
// per-request trace identifier supplied by the caller.
type AgentContext struct {
	AgentID        string        `json:"agent_id,omitempty"`
	MaturityLevel  MaturityLevel `json:"maturity_level"`
	TraceID        string        `json:"trace_id"`
	SubmissionTime time.Time     `json:"submission_time"`
}
