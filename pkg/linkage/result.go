package linkage

import (
	"time"

	"github.com/agentstation/masterlink/pkg/provenance"
	"github.com/agentstation/masterlink/pkg/table"
)

// Result is the outcome of a linkage run.
type Result struct {
	// NewMatches are the identities present in the batch but not in master.
	// Each record carries the foreign keys of the sources that contributed it.
	NewMatches []table.Row `json:"new_matches" yaml:"new_matches"`

	// UpdatedMatches is reserved and always empty.
	UpdatedMatches []table.Row `json:"updated_matches" yaml:"updated_matches"`

	RunID      string         `json:"run_id" yaml:"run_id"`
	Stats      Stats          `json:"stats" yaml:"stats"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	Duration   time.Duration  `json:"duration" yaml:"duration"`
	Provenance provenance.Map `json:"provenance,omitempty" yaml:"provenance,omitempty"`

	// Columns lists the NewMatches columns in display order.
	Columns []string `json:"-" yaml:"-"`
}

// Stats counts rows at each stage of a run.
type Stats struct {
	Sources    map[string]int `json:"sources" yaml:"sources"` // new rows per source
	Candidates int            `json:"candidates" yaml:"candidates"`
	MasterRows int            `json:"master_rows" yaml:"master_rows"`
	Matched    int            `json:"matched" yaml:"matched"`
	MasterOnly int            `json:"master_only" yaml:"master_only"`
	New        int            `json:"new" yaml:"new"`
}

// Output is the wire form consumed by the writer that persists new identities.
type Output struct {
	NewMatches     []table.Row `json:"new_matches" yaml:"new_matches"`
	UpdatedMatches []table.Row `json:"updated_matches" yaml:"updated_matches"`
}

// Output returns the new and updated matches without run metadata.
func (r *Result) Output() Output {
	return Output{NewMatches: r.NewMatches, UpdatedMatches: r.UpdatedMatches}
}
