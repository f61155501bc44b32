// Package linkage decides which newly ingested source records are new
// identities and which are already known to the master table.
//
// A run assembles the batch into a unified candidate table, rebuilds the
// master comparison fields from the current source snapshots, partitions
// master against candidates by exact equality on the tracked fields and
// returns the candidates master has never seen.
package linkage

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/masterlink/pkg/coalesce"
	"github.com/agentstation/masterlink/pkg/compose"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/normalize"
	"github.com/agentstation/masterlink/pkg/partition"
	"github.com/agentstation/masterlink/pkg/provenance"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/store"
	"github.com/agentstation/masterlink/pkg/table"
)

// Linker runs linkage against a fixed registry. It holds no per-run state
// and may be reused.
type Linker struct {
	registry *registry.Registry
	options  *options
}

// New validates reg and returns a Linker for it.
func New(reg *registry.Registry, opts ...Option) (*Linker, error) {
	if reg == nil {
		return nil, errors.NewValidationError("registry", nil, "cannot be nil")
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Linker{registry: reg, options: o}, nil
}

// Registry returns the registry the linker was built with.
func (l *Linker) Registry() *registry.Registry {
	return l.registry
}

// Run performs one linkage run. The batch is validated before reader is
// used; any failure aborts the run and no partial result is returned.
func (l *Linker) Run(ctx context.Context, reader store.Reader, batch *Batch) (*Result, error) {
	if err := batch.Validate(l.registry); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errors.NewValidationError("reader", nil, "cannot be nil")
	}

	runID := uuid.NewString()
	ctx = logging.WithOperation(logging.WithRunID(ctx, runID), "link")
	logger := logging.FromContext(ctx)
	started := time.Now()
	fields := l.registry.Fields

	result := &Result{
		RunID:          runID,
		StartedAt:      started,
		UpdatedMatches: []table.Row{},
		Stats:          Stats{Sources: make(map[string]int)},
	}

	candidates, err := l.candidates(ctx, batch, result.Stats.Sources)
	if err != nil {
		return nil, err
	}
	result.Stats.Candidates = candidates.Len()
	logger.Debug().
		Int("candidates", candidates.Len()).
		Msg("assembled candidate table")

	master, tracker, err := l.master(ctx, reader)
	if err != nil {
		return nil, err
	}
	result.Stats.MasterRows = master.Len()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := partition.Partition(master, candidates, fields)
	if err != nil {
		return nil, err
	}
	result.Stats.Matched, result.Stats.MasterOnly, _ = part.Counts()
	logger.Debug().
		Int("matched", result.Stats.Matched).
		Int("master_only", result.Stats.MasterOnly).
		Int("candidate_only", part.OnlyB.Len()).
		Msg("partitioned master against candidates")

	newRows := recoverCandidates(part.OnlyB, candidates, fields).Drop(fields...)
	result.NewMatches = newRows.Records()
	result.Columns = newRows.Columns()
	result.Stats.New = newRows.Len()
	if tracker != nil {
		result.Provenance = tracker.Map()
	}
	result.Duration = time.Since(started)

	logger.Info().
		Int("candidates", result.Stats.Candidates).
		Int("master_rows", result.Stats.MasterRows).
		Int("matched", result.Stats.Matched).
		Int("new", result.Stats.New).
		Dur("duration", result.Duration).
		Msg("linkage run complete")
	return result, nil
}

// candidates builds the unified candidate table from the batch, merging
// sources in priority order. Sources without new rows are skipped.
func (l *Linker) candidates(ctx context.Context, batch *Batch, counts map[string]int) (*table.Table, error) {
	fields := l.registry.Fields
	unified := table.New(fields...)

	for _, src := range l.registry.Ordered() {
		rows := batch.NewRows[src.Name]
		if len(rows) == 0 {
			continue
		}
		counts[src.Name] = len(rows)

		raw := table.FromRows(rows)
		if err := raw.Require(src.PrimaryKey); err != nil {
			return nil, errors.WrapValidation(src.Name+"."+src.PrimaryKey, err)
		}
		composed, err := compose.Reassign(raw, src.Mapping(fields), l.options.separator)
		if err != nil {
			return nil, err
		}
		projected, err := composed.Project(append(slices.Clone(fields), src.PrimaryKey)...)
		if err != nil {
			return nil, err
		}
		prepared := normalize.Table(projected, fields).
			Rename(map[string]string{src.PrimaryKey: src.MasterKey()})

		if unified, err = unified.OuterJoin(prepared, fields...); err != nil {
			return nil, err
		}
		logging.FromContext(logging.WithSource(ctx, src.Name)).Debug().
			Int("rows", len(rows)).
			Msg("merged source batch into candidates")
	}
	return unified, nil
}

// master reads master and every source snapshot, coalesces the tracked
// fields in priority order and normalizes them.
func (l *Linker) master(ctx context.Context, reader store.Reader) (*table.Table, provenance.Tracker, error) {
	fields := l.registry.Fields

	master, err := read(ctx, reader, l.options.masterTable)
	if err != nil {
		return nil, nil, err
	}
	master = master.Drop(l.options.dropColumns...)

	ordered := l.registry.Ordered()
	sources := make([]coalesce.Source, 0, len(ordered))
	for _, src := range ordered {
		snap, err := read(ctx, reader, src.Name)
		if err != nil {
			return nil, nil, err
		}
		composed, err := compose.Reassign(snap, src.Mapping(fields), l.options.separator)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, coalesce.Source{
			Name:  src.Name,
			Key:   src.MasterKey(),
			Table: composed.Rename(map[string]string{src.PrimaryKey: src.MasterKey()}),
		})
	}

	opts := []coalesce.Option{
		coalesce.WithLogger(logging.FromContext(ctx)),
		coalesce.WithTableName(l.options.masterTable),
		coalesce.WithIDColumn(l.options.masterID),
	}
	var tracker provenance.Tracker
	if l.options.provenance {
		tracker = provenance.NewTracker(true)
		opts = append(opts, coalesce.WithTracker(tracker))
	}

	master, err = coalesce.Coalesce(master, sources, fields, opts...)
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Debug().
		Int("master_rows", master.Len()).
		Int("sources", len(sources)).
		Msg("coalesced master fields")
	return normalize.Table(master, fields), tracker, nil
}

// read loads one table, wrapping any failure as a store error.
func read(ctx context.Context, reader store.Reader, name string) (*table.Table, error) {
	t, err := reader.ReadTable(ctx, name)
	if err != nil {
		if errors.IsStoreRead(err) {
			return nil, err
		}
		return nil, errors.WrapStore("read", name, err)
	}
	if t == nil {
		return nil, errors.WrapStore("read", name, errors.New("reader returned no table"))
	}
	logging.FromContext(logging.WithTable(ctx, name)).Debug().
		Int("rows", t.Len()).
		Msg("read table")
	return t, nil
}

// recoverCandidates returns the unified candidate rows behind onlyB. A key seen k
// times in onlyB selects the last k unified rows carrying it, since the
// partitioner pairs the earliest occurrences.
//
// This is deliberately not a plain inner join on the tracked fields: that
// would return every unified row sharing a key, duplicating output and
// reporting rows the partitioner already paired with master.
func recoverCandidates(onlyB, unified *table.Table, fields []string) *table.Table {
	want := make(map[string]int, onlyB.Len())
	for _, r := range onlyB.Rows() {
		want[table.Key(r, fields)]++
	}
	total := make(map[string]int, unified.Len())
	for _, r := range unified.Rows() {
		total[table.Key(r, fields)]++
	}

	out := table.New(unified.Columns()...)
	seen := make(map[string]int, len(want))
	for _, r := range unified.Rows() {
		k := table.Key(r, fields)
		seen[k]++
		if seen[k] > total[k]-want[k] {
			out.Append(r)
		}
	}
	return out
}
