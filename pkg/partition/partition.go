// Package partition splits two row sets into matched, left-only and
// right-only subsets by exact equality over a set of fields.
package partition

import (
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/table"
)

// Result holds the three disjoint subsets produced by Partition. Each table
// is projected to the compared fields and keeps input order.
type Result struct {
	// Matched rows appear on both sides.
	Matched *table.Table `json:"matched"`

	// OnlyA rows appear in A without a counterpart in B.
	OnlyA *table.Table `json:"only_a"`

	// OnlyB rows appear in B without a counterpart in A.
	OnlyB *table.Table `json:"only_b"`
}

// Counts returns the sizes of the three subsets.
func (r *Result) Counts() (matched, onlyA, onlyB int) {
	return r.Matched.Len(), r.OnlyA.Len(), r.OnlyB.Len()
}

// Partition compares a and b over fields with duplicate-aware counting.
// For each distinct tuple seen countA times in a and countB times in b,
// min(countA, countB) copies are matched, taken from the earliest
// occurrences; the rest of a is OnlyA and the rest of b is OnlyB.
func Partition(a, b *table.Table, fields []string) (*Result, error) {
	if len(fields) == 0 {
		return nil, errors.NewValidationError("fields", nil, "at least one field is required")
	}
	pa, err := a.Project(fields...)
	if err != nil {
		return nil, errors.WrapValidation("a", err)
	}
	pb, err := b.Project(fields...)
	if err != nil {
		return nil, errors.WrapValidation("b", err)
	}

	countB := make(map[string]int, pb.Len())
	for _, r := range pb.Rows() {
		countB[table.Key(r, fields)]++
	}

	res := &Result{
		Matched: table.New(fields...),
		OnlyA:   table.New(fields...),
		OnlyB:   table.New(fields...),
	}

	// matchedA counts how many copies of each key were paired.
	matchedA := make(map[string]int)
	for _, r := range pa.Rows() {
		k := table.Key(r, fields)
		if matchedA[k] < countB[k] {
			matchedA[k]++
			res.Matched.Append(r)
			continue
		}
		res.OnlyA.Append(r)
	}

	seenB := make(map[string]int)
	for _, r := range pb.Rows() {
		k := table.Key(r, fields)
		if seenB[k] < matchedA[k] {
			seenB[k]++
			continue
		}
		res.OnlyB.Append(r)
	}
	return res, nil
}
