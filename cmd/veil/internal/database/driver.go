// Package database provides database abstraction and connection management
// for the row source. It supports PostgreSQL, MySQL and SQLite with automatic
// dialect detection from connection strings; the exporter only consumes the
// Query/rows iteration contract.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DialectType represents the type of database dialect
type DialectType string

const (
	DialectPostgres DialectType = "postgres"
	DialectMySQL    DialectType = "mysql"
	DialectSQLite   DialectType = "sqlite"
)

// Driver defines the interface for database operations
type Driver interface {
	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Close closes the database connection
	Close() error

	// Exec executes a query without returning rows
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query that returns at most one row
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Ping verifies the connection to the database is still alive
	Ping(ctx context.Context) error

	// Dialect returns the database dialect type
	Dialect() DialectType

	// DB returns the underlying *sql.DB instance
	DB() *sql.DB

	// ListTables returns a list of all user tables in the database
	ListTables(ctx context.Context) ([]string, error)

	// TableExists checks if a table exists in the database
	TableExists(ctx context.Context, tableName string) (bool, error)
}

// Config holds database connection configuration
type Config struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// baseDriver implements common functionality for all database drivers
type baseDriver struct {
	db      *sql.DB
	dialect DialectType
	dsn     string
	config  Config
}

// Connect establishes a connection to the database
func (d *baseDriver) Connect(ctx context.Context) error {
	var err error
	driverName := string(d.dialect)

	// modernc registers itself as "sqlite", which happens to match the
	// dialect name; mysql and postgres use their dialect names too ("mysql",
	// "postgres" via lib/pq).
	d.db, err = sql.Open(driverName, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	d.db.SetMaxOpenConns(d.config.MaxOpenConns)
	d.db.SetMaxIdleConns(d.config.MaxIdleConns)
	d.db.SetConnMaxLifetime(d.config.ConnMaxLifetime)

	if err := d.db.PingContext(ctx); err != nil {
		d.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *baseDriver) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Exec executes a query without returning rows
func (d *baseDriver) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows
func (d *baseDriver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (d *baseDriver) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// Ping verifies the connection to the database is still alive
func (d *baseDriver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Dialect returns the database dialect type
func (d *baseDriver) Dialect() DialectType {
	return d.dialect
}

// DB returns the underlying *sql.DB instance
func (d *baseDriver) DB() *sql.DB {
	return d.db
}

// ListTables returns a list of all user tables in the database
func (d *baseDriver) ListTables(ctx context.Context) ([]string, error) {
	var query string

	switch d.dialect {
	case DialectSQLite:
		query = `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case DialectMySQL:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case DialectPostgres:
		query = `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename`
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", d.dialect)
	}

	rows, err := d.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

// TableExists checks if a table exists in the database
func (d *baseDriver) TableExists(ctx context.Context, tableName string) (bool, error) {
	tables, err := d.ListTables(ctx)
	if err != nil {
		return false, err
	}

	for _, table := range tables {
		if table == tableName {
			return true, nil
		}
	}

	return false, nil
}

// NewDriver creates a new database driver based on the connection string
func NewDriver(config Config) (Driver, error) {
	dialect, dsn, err := detectDialect(config.ConnectionString)
	if err != nil {
		return nil, err
	}

	return &baseDriver{
		dialect: dialect,
		dsn:     dsn,
		config:  config,
	}, nil
}

// detectDialect detects the database dialect from the connection string
func detectDialect(connectionString string) (DialectType, string, error) {
	if connectionString == "" {
		return "", "", fmt.Errorf("connection string is empty")
	}

	lower := strings.ToLower(connectionString)

	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres, connectionString, nil
	}

	if strings.HasPrefix(lower, "mysql://") {
		return DialectMySQL, mysqlDSN(strings.TrimPrefix(connectionString, "mysql://")), nil
	}

	if strings.HasPrefix(lower, "sqlite://") {
		dsn := strings.TrimPrefix(connectionString, "sqlite://")

		// In-memory databases use shared cache mode so multiple pooled
		// connections see the same database.
		if dsn == ":memory:" {
			dsn = "file::memory:?mode=memory&cache=shared"
		}

		return DialectSQLite, dsn, nil
	}

	// Standard MySQL DSN (user:password@tcp(host:port)/database)
	if strings.Contains(lower, "@tcp(") || strings.Contains(lower, "charset=") {
		return DialectMySQL, connectionString, nil
	}

	// File-based connection strings (SQLite)
	if lower == ":memory:" || strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3") {
		return DialectSQLite, connectionString, nil
	}

	// Standard PostgreSQL DSN format
	if strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return DialectPostgres, connectionString, nil
	}

	return "", "", fmt.Errorf("unable to detect database dialect from connection string: %s", connectionString)
}

// mysqlDSN converts the host portion of a mysql:// URL (scheme already
// stripped) into the tcp(addr) form go-sql-driver requires:
// "user:pass@host:port/db" becomes "user:pass@tcp(host:port)/db".
// A DSN that already names a network is passed through unchanged.
func mysqlDSN(rest string) string {
	var creds string
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		creds = rest[:at+1]
		rest = rest[at+1:]
	}

	if strings.Contains(rest, "(") {
		// Already in net(addr)/db form.
		return creds + rest
	}

	addr, dbName, _ := strings.Cut(rest, "/")
	if addr == "" {
		return creds + "/" + dbName
	}
	return creds + "tcp(" + addr + ")/" + dbName
}
