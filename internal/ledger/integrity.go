package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IntegrityProof is a Merkle tree batch proof over a contiguous window of
// verdicts. The gate's decision logic has no org/tenant concept, so unlike
// the teacher's per-organization batching, proofs are global and chained
// purely by time.
type IntegrityProof struct {
	ID           uuid.UUID
	BatchStart   time.Time
	BatchEnd     time.Time
	VerdictCount int
	RootHash     string
	PreviousRoot *string
	CreatedAt    time.Time
}

// GetLatestIntegrityProof returns the most recent batch proof, or nil if
// none exist yet.
func (db *DB) GetLatestIntegrityProof(ctx context.Context) (*IntegrityProof, error) {
	var p IntegrityProof
	err := db.pool.QueryRow(ctx,
		`SELECT id, batch_start, batch_end, verdict_count, root_hash, previous_root, created_at
		 FROM integrity_proofs
		 ORDER BY created_at DESC
		 LIMIT 1`,
	).Scan(&p.ID, &p.BatchStart, &p.BatchEnd, &p.VerdictCount, &p.RootHash, &p.PreviousRoot, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: get latest integrity proof: %w", err)
	}
	return &p, nil
}

// CreateIntegrityProof inserts a new batch proof.
func (db *DB) CreateIntegrityProof(ctx context.Context, p IntegrityProof) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO integrity_proofs (id, batch_start, batch_end, verdict_count, root_hash, previous_root, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.BatchStart, p.BatchEnd, p.VerdictCount, p.RootHash, p.PreviousRoot, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger: create integrity proof: %w", err)
	}
	return nil
}

// VerdictHashesForBatch returns content_hash values for verdicts emitted
// between since (exclusive) and until (inclusive), ordered lexicographically
// so BuildMerkleRoot is deterministic regardless of insertion order.
func (db *DB) VerdictHashesForBatch(ctx context.Context, since, until time.Time) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT content_hash FROM verdicts
		 WHERE emitted_at > $1 AND emitted_at <= $2
		   AND content_hash IS NOT NULL AND content_hash != ''
		 ORDER BY content_hash ASC`,
		since, until,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: get verdict hashes for batch: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("ledger: scan verdict hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
