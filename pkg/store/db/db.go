// Package db is the relational connector. It wraps database/sql with
// string-valued result rows, parameterized statements, and declarative
// table bootstrap, keeping handlers free of driver details.
//
// The driver is chosen by the caller; the default wiring uses the pure-Go
// sqlite driver (modernc.org/sqlite).
package db

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Connector wraps an open database handle. *sql.DB pools connections
// internally, so Connector is safe for concurrent use.
type Connector struct {
	db *sql.DB
}

// Open connects using the named database/sql driver and verifies the
// connection with a ping.
func Open(driver, dsn string) (*Connector, error) {
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	return &Connector{db: handle}, nil
}

// Health pings the database.
func (c *Connector) Health() error {
	return c.db.Ping()
}

// Query runs a parameterized query and renders every column of every row as
// a string. NULL columns render as "".
func (c *Connector) Query(query string, args ...any) ([]map[string]string, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]string, len(columns))
		for i, name := range columns {
			row[name] = values[i].String
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// Exec runs a parameterized statement and returns the number of affected
// rows.
func (c *Connector) Exec(query string, args ...any) (int64, error) {
	result, err := c.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// Close closes the underlying pool.
func (c *Connector) Close() error {
	return c.db.Close()
}

// Table declares a table's shape for EnsureTable. Columns maps a column
// name to its DDL type; the id primary key is always present and must not
// be declared.
type Table struct {
	Name    string
	Columns map[string]string
}

// EnsureTable creates the table if it does not exist, with an integer id
// primary key followed by the declared columns in sorted order.
func (c *Connector) EnsureTable(t Table) error {
	if t.Name == "" {
		return fmt.Errorf("ensuring table: empty name")
	}

	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT", t.Name)
	for _, name := range names {
		fmt.Fprintf(&b, ", %s %s", name, t.Columns[name])
	}
	b.WriteString(")")

	if _, err := c.db.Exec(b.String()); err != nil {
		return fmt.Errorf("ensuring table %s: %w", t.Name, err)
	}
	return nil
}

// Escape doubles single quotes for legacy call sites that still build SQL
// by hand. New code should pass parameters instead.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
