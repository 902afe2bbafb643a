package model

// Local-recovery reasons: stage failures that stay inside the pipeline and
// produce a named DENY. The caller never sees anything but these strings
// plus {ALLOW, DENY, ESCALATE}; no internal exception type ever leaks.
const (
	ReasonValidatorUnhealthy = "VALIDATOR_UNHEALTHY"
	ReasonSemanticTimeout    = "SEMANTIC_TIMEOUT"
	ReasonSemanticError      = "SEMANTIC_ERROR"
	ReasonNoValidators       = "NO_VALIDATORS"
	ReasonValidatorTimeout   = "VALIDATOR_TIMEOUT"
	ReasonValidatorException = "VALIDATOR_EXCEPTION"
	ReasonSignatureError     = "SIGNATURE_ERROR"
	ReasonLedgerError        = "LEDGER_ERROR"
	ReasonGateTimeout        = "GATE_TIMEOUT"
	ReasonGateInternalError  = "GATE_INTERNAL_ERROR"
	ReasonOverload           = "OVERLOAD"
)

// Semantic authority reasons, produced by the Ontology Client.
const (
	ReasonUnknownVerb  = "UNKNOWN_VERB"
	ReasonAMMViolation = "AMM_VIOLATION"
	ReasonSemanticOK   = "SEMANTIC_OK"
)

// Validator boundary reason: a validator that cannot compute because a
// required parameter is missing escalates rather than crashes.
const ReasonInsufficientContext = "INSUFFICIENT_CONTEXT"

// Aggregator reasons, produced by the conservative-veto algorithm when no
// validator or the semantic check itself supplies a more specific one.
const (
	ReasonAllValidatorsPassed = "ALL_VALIDATORS_PASSED"
	ReasonLowSemanticCoverage = "LOW_SEMANTIC_COVERAGE"
)
