// Package scsstore exposes a session.Handler as a github.com/alexedwards/scs/v2 store.
package scsstore

import (
	"encoding/binary"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/kycklingar/dbsession/session"
)

var _ scs.Store = (*Store)(nil)

// Length of the expiry header in front of every payload
const header = 8

type Store struct {
	handler session.Handler
	Now     func() time.Time
}

func New(h session.Handler) *Store {
	return &Store{
		handler: h,
		Now:     time.Now,
	}
}

// Find returns the data committed for token unless it has expired
func (s *Store) Find(token string) ([]byte, bool, error) {
	payload, err := s.handler.Read(token)
	if err != nil {
		return nil, false, err
	}

	// Unknown, or not written by Commit
	if len(payload) < header {
		return nil, false, nil
	}

	expiry := time.Unix(int64(binary.BigEndian.Uint64(payload[:header])), 0)
	if !s.Now().Before(expiry) {
		return nil, false, nil
	}

	return payload[header:], true, nil
}

func (s *Store) Commit(token string, b []byte, expiry time.Time) error {
	payload := make([]byte, header, header+len(b))
	binary.BigEndian.PutUint64(payload, uint64(expiry.Unix()))

	return s.handler.Write(token, append(payload, b...))
}

func (s *Store) Delete(token string) error {
	return s.handler.Destroy(token)
}
