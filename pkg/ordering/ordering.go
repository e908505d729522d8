// Package ordering keeps user-arranged lists (agenda items, positions) in a total,
// reorderable order backed by integer sort keys.
//
// The functions are pure: they compute the sort keys that must change and leave
// persistence to the caller. Keys are not required to be contiguous; Reorder
// normalises them to 0..N-1 while Remove-style operations may leave gaps.
package ordering

import (
	"errors"
	"sort"
)

var (
	// ErrOrderMismatch signals that a proposed permutation does not cover exactly the
	// current members of the collection.
	ErrOrderMismatch = errors.New("ordering: ids do not match collection membership")
	// ErrUnknownItem signals that an item is not part of the collection.
	ErrUnknownItem = errors.New("ordering: item not in collection")
	// ErrInvalidDirection signals an unsupported move direction.
	ErrInvalidDirection = errors.New("ordering: invalid direction")
)

// Direction is a single-step move direction.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Valid reports whether d is a supported direction.
func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// Entry is the identity and sort key of one member.
type Entry struct {
	ID        string `db:"id" json:"id"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
}

// Collect projects arbitrary items onto entries.
func Collect[T any](items []T, entry func(T) Entry) []Entry {
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		out = append(out, entry(item))
	}
	return out
}

// SortItems orders items by their entry, breaking sort key ties by id.
func SortItems[T any](items []T, entry func(T) Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(entry(items[i]), entry(items[j]))
	})
}

// Sorted returns a copy of entries in display order.
func Sorted(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// IDs returns member ids in display order.
func IDs(entries []Entry) []string {
	sorted := Sorted(entries)
	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}
	return ids
}

// NextSortOrder returns the key for an item appended at the end.
func NextSortOrder(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	max := entries[0].SortOrder
	for _, e := range entries[1:] {
		if e.SortOrder > max {
			max = e.SortOrder
		}
	}
	return max + 1
}

// Reorder assigns keys 0..N-1 following ids. ids must be a permutation of the
// current membership; anything else returns ErrOrderMismatch and no entries.
func Reorder(current []Entry, ids []string) ([]Entry, error) {
	if len(ids) != len(current) {
		return nil, ErrOrderMismatch
	}
	members := make(map[string]struct{}, len(current))
	for _, e := range current {
		members[e.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(ids))
	next := make([]Entry, 0, len(ids))
	for i, id := range ids {
		if _, ok := members[id]; !ok {
			return nil, ErrOrderMismatch
		}
		if _, dup := seen[id]; dup {
			return nil, ErrOrderMismatch
		}
		seen[id] = struct{}{}
		next = append(next, Entry{ID: id, SortOrder: i})
	}
	return next, nil
}

// MoveOneStep moves id one position towards the start (Up) or end (Down).
// It returns only the entries whose key changed; a move past either boundary
// returns no changes. With unique keys the two neighbours swap keys. Any shared key
// would let the id tie-break undo a swap, so the whole collection is renumbered instead.
func MoveOneStep(current []Entry, id string, dir Direction) ([]Entry, error) {
	if !dir.Valid() {
		return nil, ErrInvalidDirection
	}
	sorted := Sorted(current)
	idx := -1
	for i, e := range sorted {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownItem
	}

	neighbour := idx - 1
	if dir == Down {
		neighbour = idx + 1
	}
	if neighbour < 0 || neighbour >= len(sorted) {
		return nil, nil
	}

	self, other := sorted[idx], sorted[neighbour]
	if !hasDuplicateKeys(sorted) {
		return []Entry{
			{ID: self.ID, SortOrder: other.SortOrder},
			{ID: other.ID, SortOrder: self.SortOrder},
		}, nil
	}

	sorted[idx], sorted[neighbour] = sorted[neighbour], sorted[idx]
	renumbered := make([]Entry, len(sorted))
	for i, e := range sorted {
		renumbered[i] = Entry{ID: e.ID, SortOrder: i}
	}
	return Diff(current, renumbered), nil
}

// Diff returns the entries of next whose key differs from current.
func Diff(current, next []Entry) []Entry {
	before := make(map[string]int, len(current))
	for _, e := range current {
		before[e.ID] = e.SortOrder
	}
	changed := make([]Entry, 0, len(next))
	for _, e := range next {
		if prev, ok := before[e.ID]; !ok || prev != e.SortOrder {
			changed = append(changed, e)
		}
	}
	return changed
}

// Apply overlays changes onto current and returns the resulting collection.
func Apply(current, changes []Entry) []Entry {
	updates := make(map[string]int, len(changes))
	for _, c := range changes {
		updates[c.ID] = c.SortOrder
	}
	out := make([]Entry, len(current))
	for i, e := range current {
		if key, ok := updates[e.ID]; ok {
			e.SortOrder = key
		}
		out[i] = e
	}
	return out
}

// hasDuplicateKeys expects entries in display order.
func hasDuplicateKeys(sorted []Entry) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].SortOrder == sorted[i-1].SortOrder {
			return true
		}
	}
	return false
}

func less(a, b Entry) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.ID < b.ID
}
