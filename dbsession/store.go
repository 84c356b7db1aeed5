// Package dbsession stores web-session payloads in the sessions table.
//
// Rows are (id, payload, last_activity). Payloads are kept base64 encoded
// so binary session data survives a text column.
package dbsession

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/kycklingar/dbsession/db"
	"github.com/kycklingar/dbsession/session"
)

var _ session.Handler = (*Store)(nil)

var ErrNoDatabase = errors.New("dbsession: no database handle")

const (
	readQuery = `SELECT payload
		FROM sessions
		WHERE id = $1`

	writeQuery = `INSERT INTO sessions(id, payload, last_activity)
		VALUES($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET payload = EXCLUDED.payload,
			last_activity = EXCLUDED.last_activity`

	destroyQuery = `DELETE FROM sessions
		WHERE id = $1`

	gcQuery = `DELETE FROM sessions
		WHERE last_activity <= $1`
)

// Store is a session handler backed by a relational database
type Store struct {
	db db.Conn

	// Now is the clock used for last_activity and the gc cutoff
	Now func() time.Time
}

// New returns a Store over an already connected database
func New(conn db.Conn) *Store {
	return &Store{
		db:  conn,
		Now: time.Now,
	}
}

// Open reports whether the store has a database to work with. No I/O is performed.
func (s *Store) Open() error {
	if s == nil || s.db == nil {
		return ErrNoDatabase
	}

	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return ErrNoDatabase
	}

	return s.db.Close()
}

// Read returns the decoded payload for id.
// A missing row yields an empty payload and no error.
func (s *Store) Read(id string) ([]byte, error) {
	if s == nil || s.db == nil {
		return []byte{}, ErrNoDatabase
	}

	var encoded string
	err := s.db.QueryRow(readQuery, id).Scan(&encoded)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return []byte{}, nil
	case err != nil:
		return []byte{}, err
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return []byte{}, fmt.Errorf("dbsession: corrupt payload for session: %w", err)
	}

	return payload, nil
}

// Write replaces the whole row for id. Concurrent writers race, the last one wins.
func (s *Store) Write(id string, payload []byte) error {
	if s == nil || s.db == nil {
		return ErrNoDatabase
	}

	_, err := s.db.Exec(
		writeQuery,
		id,
		base64.StdEncoding.EncodeToString(payload),
		s.Now().Unix(),
	)

	return err
}

func (s *Store) Destroy(id string) error {
	if s == nil || s.db == nil {
		return ErrNoDatabase
	}

	_, err := s.db.Exec(destroyQuery, id)
	return err
}

// GC removes every session last written maxLifetime seconds ago or earlier
func (s *Store) GC(maxLifetime int) error {
	if s == nil || s.db == nil {
		return ErrNoDatabase
	}

	old := s.Now().Unix() - int64(maxLifetime)

	_, err := s.db.Exec(gcQuery, old)
	return err
}
