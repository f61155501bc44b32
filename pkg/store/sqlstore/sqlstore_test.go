package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/store"
	"github.com/agentstation/masterlink/pkg/store/sqlstore"
)

var (
	_ store.Reader = (*sqlstore.Store)(nil)
	_ store.Reader = (*sqlstore.Snapshot)(nil)
)

func seed(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "link.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE master (_id INTEGER PRIMARY KEY, salesforcecontacts_id TEXT, petpoint_id TEXT, created_date TEXT, archived_date TEXT)`,
		`INSERT INTO master VALUES (1, 'c1', NULL, '2024-01-01', NULL)`,
		`INSERT INTO master VALUES (2, NULL, 'p1', '2024-01-01', '2024-02-01')`,
		`CREATE TABLE petpoint (outcome_person_id TEXT, email TEXT, score REAL, raw BLOB)`,
		`INSERT INTO petpoint VALUES ('p1', 'Jane@X.com', 1.5, X'6869')`,
		`INSERT INTO petpoint VALUES ('p2', NULL, NULL, NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func open(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), "sqlite", seed(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReadTableSkipsArchived(t *testing.T) {
	s := open(t)

	master, err := s.ReadTable(context.Background(), "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "salesforcecontacts_id", "petpoint_id", "created_date", "archived_date"}, master.Columns())
	require.Equal(t, 1, master.Len())
	assert.Equal(t, int64(1), master.Row(0).Get("_id"))
	assert.Equal(t, "c1", master.Row(0).Get("salesforcecontacts_id"))
	assert.Nil(t, master.Row(0).Get("petpoint_id"))
}

func TestReadTableWithoutArchivedColumn(t *testing.T) {
	s := open(t)

	pp, err := s.ReadTable(context.Background(), "petpoint")
	require.NoError(t, err)
	require.Equal(t, 2, pp.Len())
	assert.Equal(t, "Jane@X.com", pp.Row(0).Get("email"))
	assert.Equal(t, 1.5, pp.Row(0).Get("score"))
	assert.Equal(t, "hi", pp.Row(0).Get("raw"), "blobs are read as text")
	assert.Nil(t, pp.Row(1).Get("email"))
}

func TestSnapshot(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	for _, name := range []string{"master", "petpoint"} {
		tbl, err := snap.ReadTable(ctx, name)
		require.NoError(t, err)
		assert.Positive(t, tbl.Len())
	}
	require.NoError(t, snap.Close())

	_, err = snap.ReadTable(ctx, "master")
	assert.True(t, errors.IsStoreRead(err), "reads after close fail")
}

func TestReadTableErrors(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	_, err := s.ReadTable(ctx, "volgistics")
	assert.True(t, errors.IsStoreRead(err))

	_, err = s.ReadTable(ctx, "master; DROP TABLE master")
	assert.True(t, errors.IsStoreRead(err))
	assert.True(t, errors.IsValidationError(err))

	master, err := s.ReadTable(ctx, "master")
	require.NoError(t, err)
	assert.Equal(t, 1, master.Len())
}

func TestOpenValidation(t *testing.T) {
	ctx := context.Background()

	_, err := sqlstore.Open(ctx, "oracle", "dsn")
	assert.True(t, errors.IsValidationError(err))

	_, err = sqlstore.Open(ctx, "sqlite", "")
	assert.True(t, errors.IsValidationError(err))

	_, err = sqlstore.New(nil, "postgres")
	assert.True(t, errors.IsValidationError(err))
}

func TestDriverAliases(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer db.Close()

	for alias, want := range map[string]string{
		"":           sqlstore.DriverSQLite,
		"sqlite3":    sqlstore.DriverSQLite,
		"postgresql": sqlstore.DriverPostgres,
		"MySQL":      sqlstore.DriverMySQL,
	} {
		s, err := sqlstore.New(db, alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, s.Driver(), alias)
	}
}
