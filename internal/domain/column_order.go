package domain

import "sort"

// ColumnRef is one display-column candidate: a field, table calculation or
// custom dimension, with the order value it was stored with.
type ColumnRef struct {
	Name  string
	Order int
}

// MergeColumnOrder builds the single display column order shared by fields,
// table calculations and both custom-dimension variants. The sort is stable:
// equal order values keep their insertion sequence, and order -1 (name absent
// from the saved column order at write time) sorts first.
func MergeColumnOrder(refs []ColumnRef) []string {
	merged := make([]ColumnRef, len(refs))
	copy(merged, refs)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Order < merged[j].Order
	})
	names := make([]string, len(merged))
	for i, ref := range merged {
		names[i] = ref.Name
	}
	return names
}

// ResolveColumnOrder looks a name up in the saved column order. Absent names
// resolve to -1, which sorts ahead of every real position.
func ResolveColumnOrder(columnOrder []string, name string) int {
	for i, column := range columnOrder {
		if column == name {
			return i
		}
	}
	return -1
}
