package header

import (
	"github.com/meigma/arh/core/internal/archtype"
	"github.com/meigma/arh/core/internal/names"
)

// Lookup returns the index of the first member, in on-disk order, whose
// filename hash equals the hash of name.
//
// Hashes are trusted to be unique within an archive; collisions are not detected.
func (t *Table) Lookup(name string) (int, bool) {
	i, ok := t.byHash[names.Hash(name)]
	return i, ok
}

// LookupHash returns the index of the first member with the given hash.
func (t *Table) LookupHash(hash uint64) (int, bool) {
	i, ok := t.byHash[hash]
	return i, ok
}

// WithName returns a Table in which member i is named name.
// It returns t itself when the member already carries that name.
func (t *Table) WithName(i int, name string) *Table {
	if t.entries[i].Name == name {
		return t
	}
	next := t.clone()
	next.entries[i].Name = name
	return next
}

// WithNames attaches names to every member whose hash matches one of them.
//
// When several candidates share a hash, the last one wins. It returns the new
// Table and the number of members that matched; when nothing matched, t
// itself is returned.
func (t *Table) WithNames(candidates []string) (*Table, int) {
	if len(candidates) == 0 || len(t.entries) == 0 {
		return t, 0
	}
	index := names.Index(candidates)

	var next *Table
	matched := 0
	for i, d := range t.entries {
		name, ok := index[d.Hash]
		if !ok {
			continue
		}
		matched++
		if d.Name == name {
			continue
		}
		if next == nil {
			next = t.clone()
		}
		next.entries[i].Name = name
	}
	if next == nil {
		return t, matched
	}
	return next, matched
}

// Resolved returns the number of members that carry a name.
func (t *Table) Resolved() int {
	n := 0
	for _, d := range t.entries {
		if d.Name != "" {
			n++
		}
	}
	return n
}

func (t *Table) clone() *Table {
	next := *t
	next.entries = make([]archtype.Descriptor, len(t.entries))
	copy(next.entries, t.entries)
	return &next
}
