// Package store provides the key index used by resource tables and the SQL
// backed catalogue stores.
package store

import (
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is the bloom filter target used by resource tables.
const DefaultFalsePositiveRate = 0.001

// KeyIndex answers "is this key known in any locale" with a bloom filter in
// front of an exact set. It is built once and never mutated, so it is safe
// for concurrent readers.
type KeyIndex struct {
	keys  map[string]struct{}
	bloom *bloom.BloomFilter
	order []string
}

// NewKeyIndex indexes keys. Empty and duplicate keys are ignored.
func NewKeyIndex(keys []string, falsePositiveRate float64) *KeyIndex {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			set[key] = struct{}{}
		}
	}

	// bloom needs a non-zero capacity estimate
	capacity := uint(len(set))
	if capacity == 0 {
		capacity = 1
	}
	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)

	order := make([]string, 0, len(set))
	for key := range set {
		filter.AddString(key)
		order = append(order, key)
	}
	sort.Strings(order)

	return &KeyIndex{
		keys:  set,
		bloom: filter,
		order: order,
	}
}

// Has reports whether key was indexed.
func (ki *KeyIndex) Has(key string) bool {
	if !ki.bloom.TestString(key) {
		return false
	}
	_, exists := ki.keys[key]
	return exists
}

// Len returns the number of distinct keys.
func (ki *KeyIndex) Len() int {
	return len(ki.keys)
}

// Keys returns the indexed keys in sorted order. The slice must not be modified.
func (ki *KeyIndex) Keys() []string {
	return ki.order
}
