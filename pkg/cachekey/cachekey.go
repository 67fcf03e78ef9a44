// Package cachekey derives stable lookup keys from (namespace, query) pairs.
//
// Keys have the shape "{namespace}:{sha256(query)}". The namespace travels in
// clear so that whole namespaces can be cleared by prefix; the query is hashed
// so that arbitrarily long or unprintable queries still yield compact,
// backend-safe keys. The hash is for cache correctness, not security: it only
// has to be deterministic across process restarts and collision-free in
// practice.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
)

// Derive returns the lookup key for a query within a namespace. It is
// deterministic and total: any pair of strings, including empty ones, maps to
// a valid key.
func Derive(namespace, query string) string {
	sum := sha256.Sum256([]byte(query))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// Prefix returns the literal key prefix shared by every key in a namespace.
func Prefix(namespace string) string {
	return namespace + ":"
}

// MatchPattern returns the glob pattern that matches every key in a
// namespace, suitable for SCAN-style enumeration on the remote backend.
func MatchPattern(namespace string) string {
	return namespace + ":*"
}
