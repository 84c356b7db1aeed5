package session

import (
	"encoding/json"
)

// Session is the state of one client for the duration of a request
type Session struct {
	ID     string
	Values map[string]any

	destroyed bool
}

func newSession(id string) *Session {
	return &Session{
		ID:     id,
		Values: make(map[string]any),
	}
}

func (s *Session) Get(key string) any {
	return s.Values[key]
}

func (s *Session) Set(key string, value any) {
	s.Values[key] = value
}

func (s *Session) Delete(key string) {
	delete(s.Values, key)
}

// Int returns the value at key as an int, or 0 when absent or not a number.
// Numbers read back from storage decode as float64.
func (s *Session) Int(key string) int {
	switch v := s.Values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}

	return 0
}

func (s *Session) Destroyed() bool {
	return s.destroyed
}

func (s *Session) encode() ([]byte, error) {
	return json.Marshal(s.Values)
}

func (s *Session) decode(payload []byte) error {
	values := make(map[string]any)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &values); err != nil {
			return err
		}
	}

	if values == nil {
		values = make(map[string]any)
	}

	s.Values = values
	return nil
}
