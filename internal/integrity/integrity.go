// Package integrity provides tamper-evident hashing and Merkle tree
// construction over the verdict ledger. All functions are pure and
// deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// ComputeVerdictHash produces a SHA-256 hex digest from a verdict's
// canonical content fields. It is the leaf hash batched into the ledger's
// periodic Merkle proofs, distinct from the Signer's per-verdict MAC: the
// signature proves the gate emitted this exact decision; the content hash
// lets a batch proof attest the ledger row was never altered after the fact.
//
// emittedAt is truncated to microsecond precision because PostgreSQL stores
// timestamptz at microsecond resolution — without truncation, a hash
// computed with Go's nanosecond-precision time.Now() would never match one
// recomputed from the DB-roundtripped timestamp.
func ComputeVerdictHash(traceID, decision, reason, signature string, certifiable bool, emittedAt time.Time) string {
	h := sha256.New()
	writeField := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	writeField(traceID)
	writeField(decision)
	writeField(reason)
	writeField(signature)
	if certifiable {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	writeField(emittedAt.Truncate(time.Microsecond).UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyVerdictHash checks whether a stored hash matches the recomputed hash
// for the given verdict content fields.
func VerifyVerdictHash(stored, traceID, decision, reason, signature string, certifiable bool, emittedAt time.Time) bool {
	return stored == ComputeVerdictHash(traceID, decision, reason, signature, certifiable, emittedAt)
}

// hashPair produces SHA-256(0x01 || len(a) || a || b) as a hex string.
// The 0x01 prefix is a domain separator for internal Merkle tree nodes (per
// RFC 6962), ensuring internal node hashes can never collide with leaf
// content hashes. The 4-byte big-endian length prefix on `a` prevents
// second-preimage attacks from boundary ambiguity.
func hashPair(a, b string) string {
	h := sha256.New()
	h.Write([]byte{0x01})
	aBytes := []byte(a)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(aBytes)))
	h.Write(lenBuf[:])
	h.Write(aBytes)
	h.Write([]byte(b))
	return hex.EncodeToString(h.Sum(nil))
}

// BuildMerkleRoot constructs a Merkle tree from leaf hashes and returns the
// root. Leaves must be sorted lexicographically by the caller for
// determinism. If leaves is empty, returns an empty string. If leaves has
// one element, the root is that element. Odd-length levels hash the last
// node with itself for structural binding.
func BuildMerkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return ""
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		var next []string
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}

	return level[0]
}
