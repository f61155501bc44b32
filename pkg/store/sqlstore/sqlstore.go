// Package sqlstore reads master and source tables from a SQL database.
// SQLite (modernc.org/sqlite), PostgreSQL (lib/pq) and MySQL
// (go-sql-driver/mysql) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/table"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store reads tables through a database/sql pool.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with the named driver and verifies the connection.
// "postgresql" and "sqlite3" are accepted as aliases.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.NewValidationError("dsn", nil, "data source name is required")
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, errors.WrapStore("open", "", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapStore("open", "", err)
	}

	if name == DriverSQLite {
		pragmas := []string{
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, errors.WrapStore("open", "", fmt.Errorf("apply pragma %q: %w", pragma, execErr))
			}
		}
	}

	logging.FromContext(ctx).Debug().
		Str("driver", name).
		Msg("opened store")
	return &Store{db: db, driver: name}, nil
}

// New wraps an already open database. driver selects identifier quoting.
func New(db *sql.DB, driver string) (*Store, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.NewValidationError("db", nil, "cannot be nil")
	}
	return &Store{db: db, driver: name}, nil
}

// Driver returns the canonical driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReadTable implements store.Reader using any pooled connection.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	return readTable(ctx, s.db, s.driver, name)
}

// Snapshot acquires a dedicated connection. Every read made through the
// snapshot uses that connection until Close is called.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errors.WrapStore("snapshot", "", err)
	}
	return &Snapshot{conn: conn, driver: s.driver}, nil
}

// Snapshot is a scoped read connection. It implements store.Reader.
type Snapshot struct {
	conn   *sql.Conn
	driver string
}

// ReadTable implements store.Reader.
func (s *Snapshot) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	return readTable(ctx, s.conn, s.driver, name)
}

// Close returns the connection to the pool.
func (s *Snapshot) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// readTable returns the rows of name, skipping archived rows when the table
// has an archived_date column.
func readTable(ctx context.Context, q queryer, driver, name string) (*table.Table, error) {
	if !identifierRe.MatchString(name) {
		return nil, errors.WrapStore("read", name, errors.NewValidationError("table", name, "invalid table name"))
	}
	quoted := quote(driver, name)

	columns, err := probeColumns(ctx, q, quoted)
	if err != nil {
		return nil, errors.WrapStore("read", name, err)
	}

	query := "SELECT * FROM " + quoted
	for _, c := range columns {
		if c == constants.ArchivedColumn {
			query += " WHERE " + quote(driver, constants.ArchivedColumn) + " IS NULL"
			break
		}
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.WrapStore("read", name, err)
	}
	defer rows.Close()

	t, err := scan(rows)
	if err != nil {
		return nil, errors.WrapStore("scan", name, err)
	}

	logging.FromContext(ctx).Debug().
		Str("table", name).
		Int("rows", t.Len()).
		Msg("read table")
	return t, nil
}

func probeColumns(ctx context.Context, q queryer, quoted string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT * FROM "+quoted+" WHERE 1=0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return rows.Columns()
}

func scan(rows *sql.Rows) (*table.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := table.New(cols...)

	vals := make([]any, len(cols))
	for i := range vals {
		vals[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(vals...); err != nil {
			return nil, err
		}
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[c] = convert(*(vals[i].(*any)))
		}
		out.Append(row)
	}
	return out, rows.Err()
}

// convert maps driver values onto the cell types used by table.
func convert(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	default:
		return x
	}
}

func quote(driver, name string) string {
	if driver == DriverMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres, nil
	case DriverMySQL:
		return DriverMySQL, nil
	default:
		return "", errors.NewValidationError("driver", driver, "unsupported store driver")
	}
}
