package ontology

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigil-governance/vigil/internal/model"
)

// PostgresClient backs the ontology lookups with the relational schema in
// migrations/ontology: actions, maturity_levels, and their governance
// relations. Queries are read-only.
type PostgresClient struct {
	pool *pgxpool.Pool

	mu      sync.Mutex
	healthy bool
}

// NewPostgresClient wraps an existing pool. The pool is owned by the caller
// (cmd/vigil), which also runs migrations against it before constructing a
// PostgresClient.
func NewPostgresClient(pool *pgxpool.Pool) *PostgresClient {
	return &PostgresClient{pool: pool, healthy: true}
}

// ValidateSemanticAuthority implements the ontology algorithm of spec.md
// §4.2: look up the action, check maturity, then compute parameter
// coverage against the action's declared governed_parameters.
func (c *PostgresClient) ValidateSemanticAuthority(ctx context.Context, action model.ActionPrimitive, maturity model.MaturityLevel) (model.SemanticVerdict, error) {
	var (
		requiredMaturity   int
		requiresValidation bool
		governedParams     []string
	)
	err := c.pool.QueryRow(ctx,
		`SELECT required_maturity, requires_validation, governed_parameters
		 FROM actions WHERE domain = $1 AND verb = $2`,
		action.Domain, action.Verb,
	).Scan(&requiredMaturity, &requiresValidation, &governedParams)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SemanticVerdict{
			Decision:      model.Deny,
			OntologyMatch: false,
			Coverage:      0,
			Reason:        model.ReasonUnknownVerb,
		}, nil
	}
	if err != nil {
		// One reconnect attempt per call: a fresh query on the pool will
		// transparently acquire a new connection if the prior one was
		// broken. If that also fails, the error propagates to the caller
		// as a genuine SEMANTIC_ERROR.
		err = c.retryQueryRow(ctx, action, &requiredMaturity, &requiresValidation, &governedParams)
		if err != nil {
			return model.SemanticVerdict{}, fmt.Errorf("ontology: lookup action %s/%s: %w", action.Domain, action.Verb, err)
		}
	}

	if int(maturity) < requiredMaturity {
		return model.SemanticVerdict{
			Decision:           model.Deny,
			OntologyMatch:      true,
			MaturityAuthorized: false,
			Coverage:           0,
			Reason:             fmt.Sprintf("%s: requires L%d", model.ReasonAMMViolation, requiredMaturity),
			RequiresValidation: requiresValidation,
		}, nil
	}

	coverage := computeCoverage(action.Parameters, governedParams)

	return model.SemanticVerdict{
		Decision:           model.Allow,
		OntologyMatch:      true,
		MaturityAuthorized: true,
		Coverage:           coverage,
		Reason:             model.ReasonSemanticOK,
		RequiresValidation: requiresValidation,
	}, nil
}

func (c *PostgresClient) retryQueryRow(ctx context.Context, action model.ActionPrimitive, requiredMaturity *int, requiresValidation *bool, governedParams *[]string) error {
	return c.pool.QueryRow(ctx,
		`SELECT required_maturity, requires_validation, governed_parameters
		 FROM actions WHERE domain = $1 AND verb = $2`,
		action.Domain, action.Verb,
	).Scan(requiredMaturity, requiresValidation, governedParams)
}

// computeCoverage is the fraction of action parameters the ontology
// recognizes as governed. 1.0 if the action has no parameters.
func computeCoverage(params map[string]any, governed []string) float64 {
	if len(params) == 0 {
		return 1.0
	}
	governedSet := make(map[string]struct{}, len(governed))
	for _, g := range governed {
		governedSet[g] = struct{}{}
	}
	covered := 0
	for k := range params {
		if _, ok := governedSet[k]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(params))
}

// Ping checks the ontology session is alive.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		c.mu.Lock()
		c.healthy = false
		c.mu.Unlock()
		return fmt.Errorf("ontology: ping: %w", err)
	}
	c.mu.Lock()
	c.healthy = true
	c.mu.Unlock()
	return nil
}
