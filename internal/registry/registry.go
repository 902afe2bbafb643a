// Package registry holds the static (domain, verb) → validator directory.
// Per spec, validators are never loaded dynamically at runtime: the registry
// is built once at startup from the compiled-in validator set and never
// mutated afterward.
package registry

import (
	"time"

	"github.com/vigil-governance/vigil/internal/validators"
)

// key identifies one governed action by domain and verb.
type key struct {
	domain string
	verb   string
}

// Registry is the static directory mapping a governed action to its ordered
// list of validators. Order is significant: it is the tie-break order the
// aggregator uses to pick the "first" offending validator deterministically.
type Registry struct {
	entries map[key][]validators.Validator
}

// New builds the registry with the default validator set, each constructed
// with the given per-validator timeout (T_val).
func New(valTimeout time.Duration) *Registry {
	r := &Registry{entries: make(map[key][]validators.Validator)}

	fuel := validators.NewFuelReserve(valTimeout)
	crew := validators.NewCrewRest(valTimeout)
	airspace := validators.NewAirspace(valTimeout)
	sca := validators.NewStrongCustomerAuthentication(valTimeout)
	aml := validators.NewAMLThreshold(valTimeout)

	r.register("aviation", "reroute_flight", fuel, crew, airspace)
	r.register("aviation", "file_flight_plan", fuel, crew, airspace)
	r.register("fintech", "initiate_payment", sca, aml)
	r.register("fintech", "transfer_funds", sca, aml)

	return r
}

func (r *Registry) register(domain, verb string, vs ...validators.Validator) {
	r.entries[key{domain: domain, verb: verb}] = vs
}

// Lookup returns the ordered validator list for (domain, verb). A nil slice
// (as opposed to an empty, non-nil one) distinguishes "this action has no
// registry entry at all" from "this action is registered but requires no
// validators" — callers that need only the list can ignore the distinction.
func (r *Registry) Lookup(domain, verb string) []validators.Validator {
	return r.entries[key{domain: domain, verb: verb}]
}
