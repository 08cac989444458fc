package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes the content fingerprint of a note body: a hex-encoded
// SHA-256 digest. Two snapshots with equal hashes are treated as identical
// content by conflict detection, so the function must stay deterministic
// across devices and releases.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HashBytes is HashContent for already-serialized payloads.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
