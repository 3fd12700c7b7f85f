// Package importer loads accounts from the legacy campus card system.
// Imports are idempotent: the same legacy student always maps to the
// same platform UUID, so a re-run after a partial failure is safe.
package importer

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// DeterministicUUID generates a UUID from a legacy identifier using
// SHA256. The same namespace and legacy ID always produce the same
// UUID across runs and machines.
func DeterministicUUID(namespace, legacyID string) uuid.UUID {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte(":"))
	h.Write([]byte(legacyID))
	digest := h.Sum(nil)

	// Use first 16 bytes as UUID, set version 5 (SHA-based)
	var id uuid.UUID
	copy(id[:], digest[:16])
	id[6] = (id[6] & 0x0f) | 0x50 // version 5
	id[8] = (id[8] & 0x3f) | 0x80 // variant RFC4122
	return id
}
