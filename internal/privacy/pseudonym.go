package privacy

import (
	"crypto/sha256"
	"encoding/hex"
)

// pseudonymLength is the number of hex characters retained from the digest.
const pseudonymLength = 16

// Pseudonymizer derives stable, non-reversible substitutes for real
// identifiers. The same input always yields the same output so repeated
// exports of one subject stay linkable to each other without exposing the
// original identifier. No inverse exists.
type Pseudonymizer struct {
	salt string
}

// NewPseudonymizer constructs a pseudonymizer with the given salt. The salt
// is injected from configuration so distinct deployments produce unlinkable
// pseudonym spaces.
func NewPseudonymizer(salt string) *Pseudonymizer {
	return &Pseudonymizer{salt: salt}
}

// Pseudonymize maps an identifier to a fixed-length hex string via a salted
// SHA-256 digest. Only used at the export boundary; internal per-subject
// queries work on real identifiers that never leave the engine in aggregate.
func (p *Pseudonymizer) Pseudonymize(identifier string) string {
	digest := sha256.Sum256([]byte(p.salt + identifier))
	return hex.EncodeToString(digest[:])[:pseudonymLength]
}
