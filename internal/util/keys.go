package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// EndpointTag returns a short, stable tag for an endpoint URL (first 8 bytes of SHA-256, hex).
func EndpointTag(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:8])
}

// StorageKey isolates tier keys by namespace and endpoint: entry:<ns>:<endpoint-tag>:<key>.
func StorageKey(namespace, endpoint, key string) string {
	return "entry:" + namespace + ":" + EndpointTag(endpoint) + ":" + key
}
