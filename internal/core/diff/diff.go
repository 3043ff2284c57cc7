// Package diff reconciles an owned child collection against a desired state
// with an explicit three-way set difference.
package diff

import "hesap/internal/core/id"

// Result partitions a desired collection against the existing live rows.
type Result[E any, D any] struct {
	// Delete holds existing rows whose id is absent from the desired set.
	Delete []E
	// Update pairs existing rows with the desired entry carrying the same id.
	Update []Pair[E, D]
	// Insert holds desired entries without an id.
	Insert []D
	// Unknown holds desired ids that match no existing live row.
	Unknown []id.ID
}

// Pair is an existing row and its desired replacement.
type Pair[E any, D any] struct {
	Existing E
	Desired  D
}

// Compute splits desired into delete/update/insert sets keyed by id.
// existingID returns a row's id; desiredID returns nil for new entries.
// Output order follows the input order of each collection.
func Compute[E any, D any](existing []E, desired []D, existingID func(E) id.ID, desiredID func(D) *id.ID) Result[E, D] {
	var res Result[E, D]

	byID := make(map[id.ID]E, len(existing))
	for _, e := range existing {
		byID[existingID(e)] = e
	}

	kept := make(map[id.ID]struct{}, len(desired))
	for _, d := range desired {
		did := desiredID(d)
		if did == nil || id.IsNil(*did) {
			res.Insert = append(res.Insert, d)
			continue
		}
		e, ok := byID[*did]
		if !ok {
			res.Unknown = append(res.Unknown, *did)
			continue
		}
		kept[*did] = struct{}{}
		res.Update = append(res.Update, Pair[E, D]{Existing: e, Desired: d})
	}

	for _, e := range existing {
		if _, ok := kept[existingID(e)]; !ok {
			res.Delete = append(res.Delete, e)
		}
	}

	return res
}

// Duplicates returns desired ids that appear more than once.
func Duplicates[D any](desired []D, desiredID func(D) *id.ID) []id.ID {
	seen := make(map[id.ID]int, len(desired))
	var dups []id.ID
	for _, d := range desired {
		did := desiredID(d)
		if did == nil || id.IsNil(*did) {
			continue
		}
		seen[*did]++
		if seen[*did] == 2 {
			dups = append(dups, *did)
		}
	}
	return dups
}
