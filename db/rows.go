package db

import (
	"database/sql"
)

type (
	Scanner    func(...any) error
	rowScanner func(Scanner) error
	rows       func(rowScanner) error
	RowsQuery  interface {
		Query(string, ...any) (*sql.Rows, error)
	}
)

// QueryRows runs query and hands every row to the scan callback.
// Iteration stops at the first error returned by the callback.
func QueryRows(q RowsQuery, query string, values ...any) rows {
	return func(scan rowScanner) error {
		rows, err := q.Query(query, values...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err = scan(rows.Scan); err != nil {
				return err
			}
		}

		return rows.Err()
	}
}
