// Package provenance records which source supplied each coalesced field
// value of a master row.
package provenance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
)

// Provenance describes one source's value for a field of a row.
type Provenance struct {
	Source    string    `json:"source" yaml:"source"`               // Source that offered the value, e.g. "volgistics"
	Field     string    `json:"field" yaml:"field"`                 // Tracked field
	Value     any       `json:"value" yaml:"value"`                 // The offered value
	Key       string    `json:"key,omitempty" yaml:"key,omitempty"` // Foreign key that linked the row
	Priority  int       `json:"priority" yaml:"priority"`           // Position in the priority order, 0 is highest
	Selected  bool      `json:"selected" yaml:"selected"`           // Whether this value was kept
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Map tracks provenance for many rows.
type Map map[string][]Provenance // key is "table:rowID:field"

// Tracker collects provenance during coalescing.
type Tracker interface {
	// Track records provenance for a field
	Track(table, rowID, field string, p Provenance)

	// FindByField retrieves provenance for a specific field of a row
	FindByField(table, rowID, field string) []Provenance

	// FindByRow retrieves all provenance for a row keyed by field
	FindByRow(table, rowID string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker drops
// everything it is given.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

func (p *tracker) Track(table, rowID, field string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}
	if history.Field == "" {
		history.Field = field
	}
	key := makeKey(table, rowID, field)
	p.provenance[key] = append(p.provenance[key], history)
}

func (p *tracker) FindByField(table, rowID, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(table, rowID, field)]
}

func (p *tracker) FindByRow(table, rowID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}
	result := make(map[string][]Provenance)
	prefix := table + ":" + rowID + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = info
		}
	}
	return result
}

func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

func (p *tracker) Clear() {
	p.provenance = make(Map)
}

func makeKey(table, rowID, field string) string {
	return fmt.Sprintf("%s:%s:%s", table, rowID, field)
}

// Report is a human-readable grouping of a Map by row.
type Report struct {
	Rows map[string]RowProvenance // key is "table:rowID"
}

// RowProvenance contains provenance for a single row.
type RowProvenance struct {
	Table  string
	ID     string
	Fields map[string]Field
}

// Field contains the provenance of one field.
type Field struct {
	Current   *Provenance  // Selected value, nil when no source supplied one
	History   []Provenance // Every offer, in priority order
	Conflicts []Conflict   // Disagreements resolved by priority
}

// Conflict describes sources that offered different values for a field.
type Conflict struct {
	Sources        []string
	Values         []any
	SelectedSource string
}

// GenerateReport groups a Map by row and detects conflicts.
func GenerateReport(m Map) *Report {
	report := &Report{Rows: make(map[string]RowProvenance)}

	for key, infos := range m {
		// row IDs may contain ':' so split from both ends
		first := strings.Index(key, ":")
		last := strings.LastIndex(key, ":")
		if first < 0 || first == last {
			continue
		}
		tableName, rowID, field := key[:first], key[first+1:last], key[last+1:]
		rowKey := tableName + ":" + rowID

		row, ok := report.Rows[rowKey]
		if !ok {
			row = RowProvenance{Table: tableName, ID: rowID, Fields: make(map[string]Field)}
		}

		history := append([]Provenance{}, infos...)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Priority < history[j].Priority
		})

		f := Field{History: history}
		for i := range history {
			if history[i].Selected {
				f.Current = &history[i]
				break
			}
		}
		if c, ok := detectConflict(history); ok {
			f.Conflicts = append(f.Conflicts, c)
		}
		row.Fields[field] = f
		report.Rows[rowKey] = row
	}
	return report
}

func detectConflict(history []Provenance) (Conflict, bool) {
	if len(history) < 2 {
		return Conflict{}, false
	}
	c := Conflict{}
	distinct := make(map[string]struct{})
	for _, h := range history {
		c.Sources = append(c.Sources, h.Source)
		c.Values = append(c.Values, h.Value)
		distinct[fmt.Sprint(h.Value)] = struct{}{}
		if h.Selected {
			c.SelectedSource = h.Source
		}
	}
	if len(distinct) < 2 {
		return Conflict{}, false
	}
	return c, true
}

// String renders the report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	keys := make([]string, 0, len(r.Rows))
	for key := range r.Rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		row := r.Rows[key]
		sb.WriteString(fmt.Sprintf("%s: %s\n", row.Table, row.ID))
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(row.Fields))
		for field := range row.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			f := row.Fields[field]
			sb.WriteString(fmt.Sprintf("  %s:\n", field))
			if f.Current != nil {
				sb.WriteString(fmt.Sprintf("    Current: %v (from %s)\n", f.Current.Value, f.Current.Source))
			} else {
				sb.WriteString("    Current: <missing>\n")
			}
			for _, c := range f.Conflicts {
				sb.WriteString(fmt.Sprintf("    Conflict: %v -> %s\n", c.Sources, c.SelectedSource))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// File is a provenance map stored on disk.
type File struct {
	RunID      string `yaml:"run_id,omitempty"`
	Provenance Map    `yaml:"provenance"`
}

// Save writes a provenance file as YAML.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	return errors.WrapIO("write", path, os.WriteFile(path, data, constants.FilePermissions))
}

// Load reads a provenance file. It returns nil, nil if the file does not exist.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &f, nil
}
