// Package rangemap provides an ordered map from half-open byte intervals
// to arbitrary values, backed by a B-tree keyed by interval start.
//
// The map maintains a standing invariant that stored intervals never
// overlap; Replace is the only mutating operation and it removes every
// intersecting entry before inserting. Lookups and sub-range iteration
// are O(log n). The map is not safe for concurrent use; callers provide
// their own synchronization.
package rangemap

import "github.com/google/btree"

const degree = 8

// Entry pairs a half-open interval [Lo, Hi) with its value.
type Entry[V any] struct {
	Lo    int64
	Hi    int64
	Value V
}

// Map is an ordered interval map over non-overlapping half-open ranges.
type Map[V any] struct {
	tree *btree.BTreeG[Entry[V]]
}

// New returns an empty interval map.
func New[V any]() *Map[V] {
	return &Map[V]{
		tree: btree.NewG(degree, func(a, b Entry[V]) bool { return a.Lo < b.Lo }),
	}
}

// Point returns the entry whose interval contains p, if any.
func (m *Map[V]) Point(p int64) (Entry[V], bool) {
	var (
		found Entry[V]
		ok    bool
	)
	m.tree.DescendLessOrEqual(Entry[V]{Lo: p}, func(e Entry[V]) bool {
		if e.Hi > p {
			found, ok = e, true
		}
		return false
	})
	return found, ok
}

// Query returns every entry whose interval intersects [lo, hi),
// in ascending order. An empty query range yields no entries.
func (m *Map[V]) Query(lo, hi int64) []Entry[V] {
	if hi <= lo {
		return nil
	}
	var out []Entry[V]
	if e, ok := m.Point(lo); ok && e.Lo < lo {
		out = append(out, e)
	}
	m.tree.AscendGreaterOrEqual(Entry[V]{Lo: lo}, func(e Entry[V]) bool {
		if e.Lo >= hi {
			return false
		}
		out = append(out, e)
		return true
	})
	return out
}

// Replace removes every entry whose interval intersects [lo, hi) and
// inserts [lo, hi) -> v. Replacing an empty interval is a no-op.
func (m *Map[V]) Replace(lo, hi int64, v V) {
	if hi <= lo {
		return
	}
	for _, e := range m.Query(lo, hi) {
		m.tree.Delete(e)
	}
	m.tree.ReplaceOrInsert(Entry[V]{Lo: lo, Hi: hi, Value: v})
}

// Entries returns all entries in ascending order.
func (m *Map[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, m.tree.Len())
	m.tree.Ascend(func(e Entry[V]) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Len returns the number of stored intervals.
func (m *Map[V]) Len() int {
	return m.tree.Len()
}
