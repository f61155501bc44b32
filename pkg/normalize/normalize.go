// Package normalize canonicalizes tracked comparison fields so that
// equivalent identities compare equal, e.g. "Jane@Example.com " and
// "jane@example.com".
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/table"
)

// Value returns the canonical text of v: its string form with surrounding
// whitespace removed, lowercased. Missing values become
// constants.MissingPlaceholder. Value(Value(v)) == Value(v).
func Value(v any) string {
	if table.IsMissing(v) {
		return constants.MissingPlaceholder
	}
	return cases.Lower(language.Und).String(strings.TrimSpace(table.String(v)))
}

// Table returns a copy of t with every listed field normalized. A listed
// field the table does not carry is added holding the placeholder.
func Table(t *table.Table, fields []string) *table.Table {
	out := t.Copy()
	for _, f := range fields {
		col := out.Column(f)
		for i, v := range col {
			col[i] = Value(v)
		}
		// lengths match by construction
		out, _ = out.SetColumn(f, col)
	}
	return out
}
