// Package ident derives deterministic record identities from descriptive
// fields.
//
// Records pushed into the reference data store need a primary key before the
// store has ever seen them. Deriving the key from the record's defining
// fields, rather than generating a random one, makes creation idempotent:
// re-running the same input data yields the same identity and therefore
// cannot create duplicate records.
package ident

import (
	"crypto/md5"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Separator joins normalized parts before hashing. Fixed so that the same
// logical input always digests the same byte sequence.
const Separator = "/"

// MakeID derives a deterministic 128-bit identity from an ordered list of
// string fields, rendered as a hyphenated UUID string.
//
// Each part is NFC-normalized, whitespace-trimmed and lower-cased; the parts
// are then joined with Separator and the UTF-8 bytes digested with MD5. The
// digest is not used for cryptographic purposes; 128 bits of collision
// avoidance is what the identity space needs.
//
// Properties:
//   - Deterministic: same input always yields the same output.
//   - Order-sensitive: swapping two unequal parts changes the result.
//   - Case- and whitespace-insensitive on each part individually.
//
// Absent or empty parts contribute the empty string; MakeID never fails.
func MakeID(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = Normalize(part)
	}
	sum := md5.Sum([]byte(strings.Join(normalized, Separator)))
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		// FromBytes only fails on length != 16; an MD5 sum is always 16.
		panic(err)
	}
	return id.String()
}

// Normalize applies the per-part canonicalization used by MakeID: NFC
// normalization, whitespace trim, lower-casing. Exposed so that cache keys
// and identities agree on what "the same field" means.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
