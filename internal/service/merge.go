package service

import (
	"sort"

	"stride-sync-server/internal/domain"
)

// MergeResult is either a merged attribute map or, when Unmergeable is
// non-empty, a signal that automatic merge is not possible for those fields.
type MergeResult struct {
	Merged      domain.Attributes
	Unmergeable []string
}

func (r MergeResult) OK() bool {
	return len(r.Unmergeable) == 0
}

// Merge reconciles local and server field-by-field against their shared
// baseline. Pure and deterministic: no I/O, identical inputs always produce
// identical output.
//
// Per field: a change on one side only is taken as-is; identical changes
// converge; conflicting changes are only reconciled for fields the schema
// marks mergeable (set union for lists, last-writer-wins by record updatedAt
// for numbers), everything else lands in Unmergeable. The updatedAt field
// itself resolves to the later of the two timestamps.
func Merge(local, server, baseline domain.Attributes, schema domain.EntitySchema) MergeResult {
	merged := make(domain.Attributes)
	var unmergeable []string

	for _, key := range unionKeys(local, server, baseline) {
		lv, lok := local[key]
		sv, sok := server[key]
		bv, bok := baseline[key]

		localChanged := fieldChanged(lv, lok, bv, bok)
		serverChanged := fieldChanged(sv, sok, bv, bok)

		switch {
		case !localChanged && !serverChanged:
			if bok {
				merged[key] = bv.Clone()
			}

		case localChanged && !serverChanged:
			if lok {
				merged[key] = lv.Clone()
			}

		case serverChanged && !localChanged:
			if sok {
				merged[key] = sv.Clone()
			}

		default:
			// Both sides changed the field.
			if lok == sok && (!lok || lv.Equal(sv)) {
				// Converged: same value, or deleted on both sides.
				if lok {
					merged[key] = lv.Clone()
				}
				continue
			}

			// updatedAt is bookkeeping, not content: concurrent edits always
			// touch it, so the later timestamp wins instead of blocking the
			// merge.
			if key == "updatedAt" && lok && sok {
				if winner, ok := laterTimestamp(lv, sv, local, server); ok {
					merged[key] = winner
					continue
				}
			}

			if !schema.IsMergeable(key) {
				unmergeable = append(unmergeable, key)
				continue
			}

			if lok && sok && lv.Kind == domain.KindList && sv.Kind == domain.KindList {
				merged[key] = unionList(lv, sv)
				continue
			}

			if lok && sok && lv.Kind == domain.KindNumber && sv.Kind == domain.KindNumber {
				if winner, ok := lastWriter(lv, sv, local, server); ok {
					merged[key] = winner
					continue
				}
			}

			unmergeable = append(unmergeable, key)
		}
	}

	if len(unmergeable) > 0 {
		return MergeResult{Unmergeable: unmergeable}
	}
	return MergeResult{Merged: merged}
}

func fieldChanged(v domain.Value, present bool, base domain.Value, basePresent bool) bool {
	if present != basePresent {
		return true
	}
	if !present {
		return false
	}
	return !v.Equal(base)
}

func unionKeys(maps ...domain.Attributes) []string {
	seen := make(map[string]bool)
	for _, m := range maps {
		for k := range m {
			seen[k] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// unionList merges two list values as a deduplicated union: local order
// first, server-only items appended in server order.
func unionList(local, server domain.Value) domain.Value {
	var items []domain.Value

	contains := func(v domain.Value) bool {
		for _, existing := range items {
			if existing.Equal(v) {
				return true
			}
		}
		return false
	}

	for _, v := range local.List {
		if !contains(v) {
			items = append(items, v.Clone())
		}
	}
	for _, v := range server.List {
		if !contains(v) {
			items = append(items, v.Clone())
		}
	}

	return domain.Value{Kind: domain.KindList, List: items}
}

func laterTimestamp(lv, sv domain.Value, local, server domain.Attributes) (domain.Value, bool) {
	lt, lok := local.Time("updatedAt")
	st, sok := server.Time("updatedAt")

	if !lok || !sok {
		return domain.Value{}, false
	}

	if lt.After(st) {
		return lv.Clone(), true
	}
	return sv.Clone(), true
}

// lastWriter resolves a numeric field conflict by the records' updatedAt
// timestamps. Without a timestamp on both sides there is no defensible
// winner and the field stays in conflict.
func lastWriter(lv, sv domain.Value, local, server domain.Attributes) (domain.Value, bool) {
	lt, lok := local.Time("updatedAt")
	st, sok := server.Time("updatedAt")

	if !lok || !sok {
		return domain.Value{}, false
	}

	if lt.After(st) {
		return lv.Clone(), true
	}
	return sv.Clone(), true
}
