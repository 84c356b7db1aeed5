package session

import (
	"sync"
	"time"
)

type memoryRecord struct {
	payload      []byte
	lastActivity int64
}

// Memory keeps sessions in process memory.
// Sessions do not survive a restart and are not shared between processes.
type Memory struct {
	sync.Mutex

	session map[string]memoryRecord
	Now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		session: make(map[string]memoryRecord),
		Now:     time.Now,
	}
}

func (m *Memory) Open() error  { return nil }
func (m *Memory) Close() error { return nil }

func (m *Memory) Read(id string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()

	r, ok := m.session[id]
	if !ok {
		return []byte{}, nil
	}

	return append([]byte{}, r.payload...), nil
}

func (m *Memory) Write(id string, payload []byte) error {
	m.Lock()
	defer m.Unlock()

	m.session[id] = memoryRecord{
		payload:      append([]byte{}, payload...),
		lastActivity: m.Now().Unix(),
	}

	return nil
}

func (m *Memory) Destroy(id string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.session, id)
	return nil
}

func (m *Memory) GC(maxLifetime int) error {
	m.Lock()
	defer m.Unlock()

	old := m.Now().Unix() - int64(maxLifetime)
	for id, r := range m.session {
		if r.lastActivity <= old {
			delete(m.session, id)
		}
	}

	return nil
}

// Len is the number of stored sessions
func (m *Memory) Len() int {
	m.Lock()
	defer m.Unlock()

	return len(m.session)
}
