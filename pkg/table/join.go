package table

// OuterJoin returns the full outer equality join of t and other on the
// given columns. Matching rows are combined (every left row with every
// right row sharing its key), left rows come first in left order, and
// unmatched right rows follow in right order. When both sides carry the
// same non-key column the left value is kept unless it is missing.
func (t *Table) OuterJoin(other *Table, on ...string) (*Table, error) {
	if err := t.Require(on...); err != nil {
		return nil, err
	}
	if err := other.Require(on...); err != nil {
		return nil, err
	}

	out := New(t.columns...)
	for _, c := range other.columns {
		out.addColumn(c)
	}

	index := make(map[string][]int, len(other.rows))
	for i, r := range other.rows {
		k := Key(r, on)
		index[k] = append(index[k], i)
	}

	used := make([]bool, len(other.rows))
	for _, l := range t.rows {
		matches := index[Key(l, on)]
		if len(matches) == 0 {
			out.rows = append(out.rows, l.Copy())
			continue
		}
		for _, ri := range matches {
			used[ri] = true
			out.rows = append(out.rows, merge(l, other.rows[ri]))
		}
	}
	for i, r := range other.rows {
		if !used[i] {
			out.rows = append(out.rows, r.Copy())
		}
	}
	return out, nil
}

func merge(left, right Row) Row {
	out := left.Copy()
	for k, v := range right {
		if IsMissing(out.Get(k)) {
			out[k] = v
		}
	}
	return out
}
