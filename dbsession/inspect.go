package dbsession

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kycklingar/dbsession/db"
	"github.com/kycklingar/dbsession/timestamp"
	"github.com/kycklingar/sqhell/cond"
)

const defaultSearchLimit = 50

// Record describes a stored session without its payload
type Record struct {
	ID           string              `db:"id" json:"id"`
	Size         int                 `db:"size" json:"size"`
	LastActivity timestamp.Timestamp `db:"last_activity" json:"last_activity"`
}

type SearchOptions struct {
	ActiveSince time.Time
	ActiveUntil time.Time

	Limit  int
	Offset int
}

// Inspector lists the sessions table for administration
type Inspector struct {
	db *sqlx.DB
}

func NewInspector(h *db.Handle) *Inspector {
	return &Inspector{sqlx.NewDb(h.DB, h.DriverName())}
}

// Search returns a page of sessions, most recently active first,
// along with the total number of sessions matching opts.
func (in *Inspector) Search(opts SearchOptions) ([]Record, int, error) {
	var (
		count   int
		records []Record
	)

	countQuery, listQuery, values := buildSearch(opts)

	err := in.db.Get(&count, countQuery, values[:len(values)-2]...)
	if err != nil {
		return nil, count, err
	}

	err = in.db.Select(&records, listQuery, values...)
	return records, count, err
}

// buildSearch returns the count and page queries. The count query takes every
// value but the trailing limit and offset.
func buildSearch(opts SearchOptions) (string, string, []any) {
	var (
		where = new(cond.Group)
		limit = new(cond.Group).
			Add("", cond.P("LIMIT $%d")).
			Add("\n", cond.P("OFFSET $%d"))
		v []any
		w string

		paramIndex = 1
	)

	if !opts.ActiveSince.IsZero() {
		where.Add("\nAND", cond.P("last_activity >= $%d"))
		v = append(v, opts.ActiveSince.Unix())
	}

	if !opts.ActiveUntil.IsZero() {
		where.Add("\nAND", cond.P("last_activity < $%d"))
		v = append(v, opts.ActiveUntil.Unix())
	}

	if len(v) > 0 {
		w = "WHERE " + where.Eval(&paramIndex)
	}

	countQuery := fmt.Sprintf(`
		SELECT count(*)
		FROM sessions
		%s
		`,
		w,
	)

	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	v = append(v, opts.Limit, opts.Offset)

	listQuery := fmt.Sprintf(`
		SELECT id, octet_length(decode(payload, 'base64')) AS size, last_activity
		FROM sessions
		%s
		ORDER BY last_activity DESC, id
		%s
		`,
		w,
		limit.Eval(&paramIndex),
	)

	return countQuery, listQuery, v
}
