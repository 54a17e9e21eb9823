package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ArchiveKey returns the provider key of a bucket archive: "bucket:<ns>:<name>".
// An empty namespace collapses to "bucket:<name>".
func ArchiveKey(ns, bucket string) string {
	var b strings.Builder
	b.Grow(len("bucket:") + len(ns) + 1 + len(bucket))
	b.WriteString("bucket:")
	if ns != "" {
		b.WriteString(ns)
		b.WriteByte(':')
	}
	b.WriteString(bucket)
	return b.String()
}

// Digest returns the first 16 hex chars of sha256(s). Used to keep ids out of logs.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
