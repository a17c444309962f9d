package apicache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// filterTokenLen is the number of hex characters kept from the filter
// hash. 12 chars (48 bits) keeps keys short while making accidental
// collisions between filter sets implausible.
const filterTokenLen = 12

// ErrFilterKey is returned when a filter cannot be serialized into a
// cache key.
var ErrFilterKey = errors.New("apicache: failed to build filter key")

// EntityKey returns the namespace and key for a single entity, which
// compose into the canonical "<type>:<id>" form.
func EntityKey(resource, id string) (ns, key string) {
	return resource, id
}

// ListNamespace returns the namespace holding every cached filtered
// list for a resource type. Invalidation clears it wholesale.
func ListNamespace(resource string) string {
	return resource + ":list"
}

// ListKey builds a deterministic key for a filtered listing. The
// filter is serialized with its keys sorted (encoding/json orders map
// keys) and hashed, so two logically identical filters produce the
// same key regardless of how the caller assembled the map.
func ListKey(filter map[string]any) (string, error) {
	if len(filter) == 0 {
		return "f:all", nil
	}

	data, err := json.Marshal(filter)
	if err != nil {
		return "", errors.Join(ErrFilterKey, err)
	}

	sum := sha256.Sum256(data)
	return "f:" + hex.EncodeToString(sum[:])[:filterTokenLen], nil
}
