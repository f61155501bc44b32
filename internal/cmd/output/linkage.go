package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/table"
)

// missingCell is printed for missing values in tables.
const missingCell = "-"

// MatchesData converts new identity records to table format. Columns
// follow the result's display order; a result without one falls back to
// the sorted union of row keys.
func MatchesData(result *linkage.Result) Data {
	columns := result.Columns
	if len(columns) == 0 {
		columns = rowKeys(result.NewMatches)
	}

	rows := make([][]string, 0, len(result.NewMatches))
	for _, r := range result.NewMatches {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = Cell(r.Get(c))
		}
		rows = append(rows, row)
	}

	return Data{Headers: columns, Rows: rows}
}

// StatsData summarizes a run as a key-value table.
func StatsData(result *linkage.Result) Data {
	s := result.Stats
	rows := [][]string{
		{"Run ID", result.RunID},
		{"Duration", result.Duration.String()},
	}

	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{"New rows (" + name + ")", fmt.Sprint(s.Sources[name])})
	}

	rows = append(rows,
		[]string{"Candidates", fmt.Sprint(s.Candidates)},
		[]string{"Master rows", fmt.Sprint(s.MasterRows)},
		[]string{"Matched", fmt.Sprint(s.Matched)},
		[]string{"Master only", fmt.Sprint(s.MasterOnly)},
		[]string{"New identities", fmt.Sprint(s.New)},
	)

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// RegistryData lists sources in priority order with their field mappings.
func RegistryData(reg *registry.Registry) Data {
	headers := []string{"Priority", "Source", "Primary Key", "Master Key"}
	headers = append(headers, reg.Fields...)

	rows := make([][]string, 0, len(reg.Priority))
	for i, src := range reg.Ordered() {
		row := []string{fmt.Sprint(i + 1), src.Name, src.PrimaryKey, src.MasterKey()}
		for _, f := range reg.Fields {
			row = append(row, src.Fields[f].String())
		}
		rows = append(rows, row)
	}

	align := make([]Align, len(headers))
	align[0] = AlignRight
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// Cell renders a single value for table output.
func Cell(v any) string {
	s := strings.TrimSpace(table.String(v))
	if s == "" {
		return missingCell
	}
	return s
}

func rowKeys(rows []table.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
