package ontology

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vigil-governance/vigil/internal/model"
)

// FakeAction is a single ontology entry used by FakeClient, mirroring one
// row of the actions table plus its governed parameter set.
type FakeAction struct {
	Domain             string
	Verb               string
	RequiredMaturity   model.MaturityLevel
	RequiresValidation bool
	GovernedParameters []string
}

// FakeClient is an in-memory Client for unit and gate tests that need
// deterministic ontology behavior without a Postgres instance.
type FakeClient struct {
	mu      sync.Mutex
	actions map[string]FakeAction
	healthy bool
	sleep   func(context.Context) error
}

// NewFakeClient constructs a healthy fake ontology with the given actions.
func NewFakeClient(actions ...FakeAction) *FakeClient {
	c := &FakeClient{actions: make(map[string]FakeAction), healthy: true}
	for _, a := range actions {
		c.actions[key(a.Domain, a.Verb)] = a
	}
	return c
}

func key(domain, verb string) string { return domain + "/" + verb }

// SetHealthy controls what Ping reports, for injected-failure tests.
func (c *FakeClient) SetHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = healthy
}

// SetSleep installs a hook that runs (and can block on ctx) before every
// ValidateSemanticAuthority call, used to simulate SEMANTIC_TIMEOUT.
func (c *FakeClient) SetSleep(fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleep = fn
}

func (c *FakeClient) ValidateSemanticAuthority(ctx context.Context, action model.ActionPrimitive, maturity model.MaturityLevel) (model.SemanticVerdict, error) {
	c.mu.Lock()
	sleep := c.sleep
	c.mu.Unlock()
	if sleep != nil {
		if err := sleep(ctx); err != nil {
			return model.SemanticVerdict{}, err
		}
	}

	c.mu.Lock()
	a, ok := c.actions[key(action.Domain, action.Verb)]
	c.mu.Unlock()
	if !ok {
		return model.SemanticVerdict{
			Decision: model.Deny, OntologyMatch: false, Coverage: 0, Reason: model.ReasonUnknownVerb,
		}, nil
	}

	if maturity < a.RequiredMaturity {
		return model.SemanticVerdict{
			Decision: model.Deny, OntologyMatch: true, MaturityAuthorized: false, Coverage: 0,
			Reason:             fmt.Sprintf("%s: requires L%d", model.ReasonAMMViolation, a.RequiredMaturity),
			RequiresValidation: a.RequiresValidation,
		}, nil
	}

	coverage := computeCoverage(action.Parameters, a.GovernedParameters)
	return model.SemanticVerdict{
		Decision: model.Allow, OntologyMatch: true, MaturityAuthorized: true, Coverage: coverage,
		Reason: model.ReasonSemanticOK, RequiresValidation: a.RequiresValidation,
	}, nil
}

// ErrUnhealthy is returned by Ping when the fake has been marked unhealthy.
var ErrUnhealthy = errors.New("ontology: fake client unhealthy")

func (c *FakeClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.healthy {
		return ErrUnhealthy
	}
	return nil
}
