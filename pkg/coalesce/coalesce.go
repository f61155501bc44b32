// Package coalesce rebuilds the tracked fields of master identity rows from
// the current source snapshots. Sources are applied in priority order and
// the first present value wins for each row and field.
package coalesce

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/provenance"
	"github.com/agentstation/masterlink/pkg/table"
)

// Source is one source snapshot taking part in coalescing.
type Source struct {
	// Name of the source system.
	Name string

	// Key is the foreign-key column shared by master and Table,
	// e.g. "volgistics_id".
	Key string

	// Table holds the source rows with tracked fields already composed.
	Table *table.Table
}

// Coalesce returns a copy of master whose tracked fields are filled from
// sources, which must be in priority order.
//
// Every field starts missing on every master row. Each source in turn then
// fills the fields that are still missing on rows linked to it through Key.
// Master rows are never added, dropped or reordered. A key that matches
// several source rows resolves to the first of them and is reported as a
// warning.
func Coalesce(master *table.Table, sources []Source, fields []string, opts ...Option) (*table.Table, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if src.Table == nil {
			return nil, errors.NewValidationError("sources."+src.Name, nil, "source table is nil")
		}
		if err := src.Table.Require(append([]string{src.Key}, fields...)...); err != nil {
			return nil, errors.WrapValidation("sources."+src.Name, err)
		}
	}

	values := make(map[string][]any, len(fields))
	for _, f := range fields {
		values[f] = make([]any, master.Len())
	}

	for priority, src := range sources {
		if !master.HasColumn(src.Key) {
			o.logger.Debug().
				Str("source", src.Name).
				Str("key", src.Key).
				Msg("master has no link column for source")
			continue
		}

		index, duplicates := indexByKey(src.Table, src.Key)
		if duplicates > 0 {
			o.logger.Warn().
				Str("source", src.Name).
				Str("key", src.Key).
				Int("duplicate_keys", duplicates).
				Msg("source key links to several rows; using the first")
		}

		for i := 0; i < master.Len(); i++ {
			k, ok := linkKey(master.Row(i).Get(src.Key))
			if !ok {
				continue
			}
			ri, ok := index[k]
			if !ok {
				continue
			}
			srcRow := src.Table.Row(ri)
			for _, f := range fields {
				v := srcRow.Get(f)
				if table.IsMissing(v) {
					continue
				}
				selected := table.IsMissing(values[f][i])
				if selected {
					values[f][i] = v
				}
				o.tracker.Track(o.table, rowID(master.Row(i), i, o.idColumn), f, provenance.Provenance{
					Source:   src.Name,
					Value:    v,
					Key:      k,
					Priority: priority,
					Selected: selected,
					Reason:   reason(selected, src.Name),
				})
			}
		}
	}

	out := master
	for _, f := range fields {
		if out, err = out.SetColumn(f, values[f]); err != nil {
			return nil, err
		}
	}
	if out == master {
		out = master.Copy()
	}
	return out, nil
}

// indexByKey maps each link key to the first row carrying it and counts the
// keys that appear more than once.
func indexByKey(t *table.Table, column string) (map[string]int, int) {
	index := make(map[string]int, t.Len())
	dups := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		k, ok := linkKey(t.Row(i).Get(column))
		if !ok {
			continue
		}
		if _, seen := index[k]; seen {
			dups[k] = struct{}{}
			continue
		}
		index[k] = i
	}
	return index, len(dups)
}

// linkKey returns the comparable form of a foreign key so that int64(7),
// 7.0 and "7" link to each other.
func linkKey(v any) (string, bool) {
	if table.IsMissing(v) {
		return "", false
	}
	k := strings.TrimSpace(table.String(v))
	if k == "" {
		return "", false
	}
	return k, true
}

func rowID(row table.Row, i int, column string) string {
	if column != "" {
		if id, ok := linkKey(row.Get(column)); ok {
			return id
		}
	}
	return "#" + strconv.Itoa(i)
}

func reason(selected bool, source string) string {
	if selected {
		return fmt.Sprintf("first present value in priority order (%s)", source)
	}
	return "shadowed by a higher-priority source"
}
