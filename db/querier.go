package db

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is the single row result of QueryRow
type Row interface {
	Scan(dest ...any) error
}

// Q is the set of statements the session store issues
type Q interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) Row
}

// Conn is a database handle that can be released
type Conn interface {
	Q
	Close() error
}

// Handle is an opened database. It satisfies Conn.
type Handle struct {
	*sql.DB

	driver string

	// set when the handle was opened through pgx
	pool *pgxpool.Pool
}

// Wrap exposes an already opened *sql.DB as a Handle
func Wrap(db *sql.DB, driver string) *Handle {
	return &Handle{DB: db, driver: driver}
}

// DriverName reports the database/sql driver the handle was opened with
func (h *Handle) DriverName() string {
	return h.driver
}

func (h *Handle) QueryRow(query string, args ...any) Row {
	return h.DB.QueryRow(query, args...)
}

func (h *Handle) Close() error {
	err := h.DB.Close()
	if h.pool != nil {
		h.pool.Close()
	}

	return err
}
