// Package store defines the read interface the linker uses to load the
// master table and the current source snapshots.
package store

import (
	"context"

	"github.com/agentstation/masterlink/pkg/table"
)

// Reader reads the current, non-archived rows of a table.
type Reader interface {
	ReadTable(ctx context.Context, name string) (*table.Table, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, name string) (*table.Table, error)

// ReadTable calls f(ctx, name).
func (f ReaderFunc) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	return f(ctx, name)
}
