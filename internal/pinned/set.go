// Package pinned maintains the user-curated set of pinned conference
// identity keys and its on-disk persistence.
package pinned

import "sort"

// Set is a set of conference identity keys. Uniqueness is enforced; there
// is no ordering guarantee. Keys that no longer match any row in the
// current table are kept: they become live again if the same conference
// reappears in a future load.
type Set map[string]struct{}

// New initializes a Set from the given keys.
func New(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add adds a key to the set. Adding a present key is a no-op.
func (s Set) Add(key string) {
	s[key] = struct{}{}
}

// Remove removes a key from the set. Removing an absent key is a no-op.
func (s Set) Remove(key string) {
	delete(s, key)
}

// Contains reports whether the set holds key.
func (s Set) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys in the set.
func (s Set) Len() int {
	return len(s)
}

// Keys returns the keys sorted, so persisted files are deterministic.
func (s Set) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Reconcile merges a user-edited view back into prev: keys checked in the
// visible grid are added, keys unchecked there are removed, and keys the
// user could not see (absent from visible) are left untouched. prev is
// not modified.
func Reconcile(prev Set, visible map[string]bool) Set {
	next := prev.Clone()
	for key, flagged := range visible {
		if flagged {
			next.Add(key)
		} else {
			next.Remove(key)
		}
	}
	return next
}
