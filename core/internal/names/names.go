// Package names computes member filename hashes.
package names

import "github.com/cespare/xxhash/v2"

// Hash returns the xxHash64 (seed 0) of name's bytes.
func Hash(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Index maps hashes to names. Later names replace earlier ones with the same hash.
func Index(names []string) map[uint64]string {
	m := make(map[uint64]string, len(names))
	for _, name := range names {
		m[Hash(name)] = name
	}
	return m
}
