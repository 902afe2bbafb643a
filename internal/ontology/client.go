// Package ontology is the read-only semantic authority client: it answers
// "does this verb exist, is it authorized at this maturity level, and what
// fraction of its parameters does the ontology recognize as governed." The
// graph it queries (Action, MaturityLevel, Regulation, Validator and their
// REQUIRES_MATURITY / GOVERNED_BY / REQUIRES_VALIDATOR / ENFORCED_BY
// relations) has cycles; the client never traverses them, it performs keyed
// lookups only.
package ontology

import (
	"context"

	"github.com/vigil-governance/vigil/internal/model"
)

// Client is the Validation Gate's only way to reach the domain ontology.
// Implementations must be safe for concurrent use: the gate shares one
// Client across all in-flight requests.
type Client interface {
	// ValidateSemanticAuthority performs the semantic authority check for
	// one action at the given maturity level. It never returns a non-nil
	// error alongside a usable SemanticVerdict — callers distinguish
	// "denied by policy" (err == nil, verdict.Decision == DENY) from
	// "could not determine" (err != nil).
	ValidateSemanticAuthority(ctx context.Context, action model.ActionPrimitive, maturity model.MaturityLevel) (model.SemanticVerdict, error)

	// Ping reports whether the ontology session is alive. It is cheap
	// enough to call on every health-probe cache refresh.
	Ping(ctx context.Context) error
}
