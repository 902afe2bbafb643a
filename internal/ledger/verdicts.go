package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigil-governance/vigil/internal/integrity"
	"github.com/vigil-governance/vigil/internal/model"
)

// Row is the persisted shape of a Verdict, matching the wire-stable schema
// of spec.md §6: every Verdict field plus a store-generated surrogate id.
// Rows are never updated or deleted by the gate; the primary key
// (timestamp, id) enforces ordering within the hypertable.
type Row struct {
	Timestamp               time.Time
	ID                      int64
	TraceID                 string
	Decision                model.Decision
	Reason                  string
	AgentID                 string
	MaturityLevel           model.MaturityLevel
	ActionVerb              string
	ActionResource          string
	ActionDomain            string
	ActionParameters        map[string]any
	SemanticOntologyMatch   bool
	SemanticMaturityAuth    bool
	SemanticCoverage        float64
	ValidatorResults        []model.ValidatorVerdict
	TotalLatencyMS          float64
	Certifiable             bool
	Signature               string
	Metadata                map[string]any
}

// Append writes a signed verdict to the ledger under the caller's context
// deadline (the gate enforces T_persist by cancelling ctx). A failed append
// returns an error; per spec.md §4.1 the gate treats this as fail-closed
// DENY while still returning the unpersisted verdict to the caller.
func (db *DB) Append(ctx context.Context, v model.Verdict) error {
	paramsJSON, err := json.Marshal(v.Action.Parameters)
	if err != nil {
		return fmt.Errorf("ledger: marshal action parameters: %w", err)
	}
	resultsJSON, err := json.Marshal(v.ValidatorResults)
	if err != nil {
		return fmt.Errorf("ledger: marshal validator results: %w", err)
	}

	contentHash := integrity.ComputeVerdictHash(v.TraceID, string(v.Decision), v.Reason, v.Signature, v.Certifiable, v.EmittedAt)

	_, err = db.pool.Exec(ctx,
		`INSERT INTO verdicts (
		     emitted_at, trace_id, decision, reason,
		     agent_id, maturity_level,
		     action_verb, action_resource, action_domain, action_parameters,
		     semantic_ontology_match, semantic_maturity_authorized, semantic_coverage,
		     validator_results, total_latency_ms, certifiable, signature, metadata, content_hash
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13, $14::jsonb, $15, $16, $17, $18::jsonb, $19)`,
		v.EmittedAt, v.TraceID, string(v.Decision), v.Reason,
		nullableString(v.AgentID), int(v.AgentMaturity),
		v.Action.Verb, v.Action.Resource, v.Action.Domain, paramsJSON,
		v.Semantic.OntologyMatch, v.Semantic.MaturityAuthorized, v.Semantic.Coverage,
		resultsJSON, v.GovernanceLatency, v.Certifiable, nullableString(v.Signature), []byte("{}"), contentHash,
	)
	if err != nil {
		return fmt.Errorf("ledger: insert verdict: %w", err)
	}
	return nil
}

// nullableString converts an empty string to a SQL NULL so optional text
// columns (agent_id, signature) round-trip as NULL rather than "".
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Recent returns the most recently emitted rows, newest first, for
// operator/analytical use. This is the "read path for analytical queries"
// spec.md §4.6 calls out as explicitly not part of the write-path contract.
func (db *DB) Recent(ctx context.Context, limit int) ([]Row, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT emitted_at, id, trace_id, decision, reason, COALESCE(agent_id, ''), maturity_level,
		        action_verb, action_resource, action_domain, action_parameters,
		        semantic_ontology_match, semantic_maturity_authorized, semantic_coverage,
		        validator_results, total_latency_ms, certifiable, COALESCE(signature, '')
		 FROM verdicts
		 ORDER BY emitted_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: query recent verdicts: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r            Row
			decision     string
			paramsJSON   []byte
			resultsJSON  []byte
		)
		if err := rows.Scan(
			&r.Timestamp, &r.ID, &r.TraceID, &decision, &r.Reason, &r.AgentID, &r.MaturityLevel,
			&r.ActionVerb, &r.ActionResource, &r.ActionDomain, &paramsJSON,
			&r.SemanticOntologyMatch, &r.SemanticMaturityAuth, &r.SemanticCoverage,
			&resultsJSON, &r.TotalLatencyMS, &r.Certifiable, &r.Signature,
		); err != nil {
			return nil, fmt.Errorf("ledger: scan verdict row: %w", err)
		}
		r.Decision = model.Decision(decision)
		if err := json.Unmarshal(paramsJSON, &r.ActionParameters); err != nil {
			return nil, fmt.Errorf("ledger: unmarshal action parameters: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &r.ValidatorResults); err != nil {
			return nil, fmt.Errorf("ledger: unmarshal validator results: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
