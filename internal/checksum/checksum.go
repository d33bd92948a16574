// Package checksum fingerprints document content. The digest doubles as
// the If-Match token for optimistic concurrency and as the change marker
// the index sync compares against.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
