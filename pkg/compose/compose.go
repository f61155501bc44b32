// Package compose derives tracked comparison fields from a source's raw
// columns, e.g. name = first_name + " " + last_name.
package compose

import (
	"sort"
	"strings"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/table"
)

// Column returns the composed values of spec for every row of t, in row
// order. A single-column spec returns that column unchanged. For several
// columns the string forms are joined with sep in spec order; a row with
// any missing part composes to missing.
func Column(t *table.Table, spec registry.FieldSpec, sep string) ([]any, error) {
	if len(spec) == 0 {
		return nil, errors.NewValidationError("spec", nil, "field spec names no columns")
	}
	if err := t.Require(spec...); err != nil {
		return nil, err
	}
	if len(spec) == 1 {
		return t.Column(spec[0]), nil
	}

	out := make([]any, t.Len())
	parts := make([]string, len(spec))
	for i := range out {
		row := t.Row(i)
		missing := false
		for j, c := range spec {
			v := row.Get(c)
			if table.IsMissing(v) {
				missing = true
				break
			}
			parts[j] = table.String(v)
		}
		if missing {
			continue
		}
		out[i] = strings.Join(parts, sep)
	}
	return out, nil
}

// Reassign returns a copy of t with each target field of mapping set to its
// composed column. Every spec is evaluated against the input table, so a
// target may reuse a raw column name that another spec reads.
func Reassign(t *table.Table, mapping map[string]registry.FieldSpec, sep string) (*table.Table, error) {
	targets := make([]string, 0, len(mapping))
	for target := range mapping {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	columns := make(map[string][]any, len(mapping))
	for _, target := range targets {
		col, err := Column(t, mapping[target], sep)
		if err != nil {
			return nil, errors.WrapValidation(target, err)
		}
		columns[target] = col
	}

	out := t
	for _, target := range targets {
		var err error
		if out, err = out.SetColumn(target, columns[target]); err != nil {
			return nil, err
		}
	}
	if out == t {
		out = t.Copy()
	}
	return out, nil
}
