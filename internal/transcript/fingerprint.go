package transcript

import (
	"encoding/hex"

	"concretestv/internal/arithmetic"
	"lukechampine.com/blake3"
)

// Fingerprint hashes the canonical JSON encoding of t with BLAKE3, giving a
// short digest two transcripts can be compared by without a byte-for-byte
// diff. Determinism of a count (same ballots, rule profile, and tie-oracle
// decisions always produce the same transcript) is exactly the property
// this is used to test.
func Fingerprint(t Transcript, kind arithmetic.Kind) (string, error) {
	b, err := MarshalJSON(t, kind)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
