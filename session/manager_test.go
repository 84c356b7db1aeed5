package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errBroken = errors.New("storage unavailable")

// Fails every operation but Open
type brokenHandler struct{ closed bool }

func (b *brokenHandler) Open() error                 { return nil }
func (b *brokenHandler) Close() error                { b.closed = true; return nil }
func (b *brokenHandler) Read(string) ([]byte, error) { return []byte{}, errBroken }
func (b *brokenHandler) Write(string, []byte) error  { return errBroken }
func (b *brokenHandler) Destroy(string) error        { return errBroken }
func (b *brokenHandler) GC(int) error                { return errBroken }

type closedHandler struct{ brokenHandler }

func (closedHandler) Open() error { return errBroken }

func testConfig() Config {
	var cfg Config
	cfg.Default()
	cfg.GCProbability = 0
	return cfg
}

func newTestManager(t *testing.T, h Handler, cfg Config) *Manager {
	m, err := NewManager(h, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	t.Fatalf("response carries no '%s' cookie", name)
	return nil
}

func TestNewManagerOpensHandler(t *testing.T) {
	_, err := NewManager(&closedHandler{}, testConfig(), nil)
	assert.ErrorIs(t, err, errBroken)

	_, err = NewManager(nil, testConfig(), nil)
	assert.Error(t, err)
}

func TestManagerStartNew(t *testing.T) {
	m := newTestManager(t, NewMemory(), testConfig())

	rec := httptest.NewRecorder()
	s := m.Start(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, s.ID, keyLength)
	assert.Empty(t, s.Values)

	c := sessionCookie(t, rec, "session")
	assert.Equal(t, s.ID, c.Value)
	assert.True(t, c.HttpOnly)
}

func TestManagerRoundTrip(t *testing.T) {
	mem := NewMemory()
	m := newTestManager(t, mem, testConfig())

	s := m.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	s.Set("visits", 3)
	require.NoError(t, m.Save(s))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: s.ID})

	s2 := m.Start(httptest.NewRecorder(), req)
	assert.Equal(t, s.ID, s2.ID)
	assert.Equal(t, 3, s2.Int("visits"))
}

func TestManagerReadFailureIsEmptySession(t *testing.T) {
	m := newTestManager(t, &brokenHandler{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "known"})

	s := m.Start(httptest.NewRecorder(), req)
	assert.NotEqual(t, "known", s.ID)
	assert.Len(t, s.ID, keyLength)
	assert.Empty(t, s.Values)

	assert.ErrorIs(t, m.Save(s), errBroken)
}

// Fails reads while failRead is set, otherwise defers to Memory
type flakyHandler struct {
	*Memory
	failRead bool
}

func (f *flakyHandler) Read(id string) ([]byte, error) {
	if f.failRead {
		return []byte{}, errBroken
	}

	return f.Memory.Read(id)
}

func TestManagerReadFailureKeepsStoredSession(t *testing.T) {
	h := &flakyHandler{Memory: NewMemory()}
	require.NoError(t, h.Write("stored", []byte(`{"cart":5}`)))

	m := newTestManager(t, h, testConfig())

	h.failRead = true

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "stored"})

	rec := httptest.NewRecorder()
	s := m.Start(rec, req)
	assert.NotEqual(t, "stored", s.ID)
	assert.Equal(t, s.ID, sessionCookie(t, rec, "session").Value)
	require.NoError(t, m.Save(s))

	h.failRead = false

	p, err := h.Read("stored")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cart":5}`, string(p))
}

func TestManagerUnknownCookieGetsFreshID(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.Write("victim", []byte(`{"user":"victim"}`)))

	m := newTestManager(t, mem, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "chosen-by-client"})

	rec := httptest.NewRecorder()
	s := m.Start(rec, req)
	assert.NotEqual(t, "chosen-by-client", s.ID)
	assert.Len(t, s.ID, keyLength)
	assert.Equal(t, s.ID, sessionCookie(t, rec, "session").Value)

	s.Set("user", "someone")
	require.NoError(t, m.Save(s))

	p, err := mem.Read("chosen-by-client")
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = mem.Read("victim")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"victim"}`, string(p))
}

func TestManagerCorruptPayloadIsEmptySession(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.Write("corrupt", []byte{0x00, 0xFF, 0x41}))

	m := newTestManager(t, mem, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "corrupt"})

	s := m.Start(httptest.NewRecorder(), req)
	assert.Empty(t, s.Values)
}

func TestManagerDestroy(t *testing.T) {
	mem := NewMemory()
	m := newTestManager(t, mem, testConfig())

	s := m.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	s.Set("user", "alice")
	require.NoError(t, m.Save(s))

	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(rec, s))
	assert.True(t, s.Destroyed())
	assert.Equal(t, 0, mem.Len())

	c := sessionCookie(t, rec, "session")
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)

	// Saving a destroyed session must not bring it back
	require.NoError(t, m.Save(s))
	assert.Equal(t, 0, mem.Len())
}

func TestManagerProbabilisticGC(t *testing.T) {
	mem, c := newTestMemory()

	cfg := testConfig()
	cfg.MaxLifetime = 60
	cfg.GCProbability = 1
	cfg.GCDivisor = 100

	m := newTestManager(t, mem, cfg)

	require.NoError(t, mem.Write("stale", []byte("{}")))
	c.advance(time.Minute * 2)

	// No collection when the roll misses
	m.roll = func(n int) int { return n - 1 }
	m.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1, mem.Len())

	m.roll = func(n int) int { return 0 }
	m.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 0, mem.Len())
}

func TestManagerGCFailure(t *testing.T) {
	m := newTestManager(t, &brokenHandler{}, testConfig())
	assert.ErrorIs(t, m.GC(), errBroken)
}

func TestManagerCollectGarbageStops(t *testing.T) {
	cfg := testConfig()
	cfg.GCInterval = 1

	m := newTestManager(t, NewMemory(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		m.CollectGarbage(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("CollectGarbage did not return after cancel")
	}
}

func TestManagerClose(t *testing.T) {
	h := &brokenHandler{}
	m := newTestManager(t, h, testConfig())

	require.NoError(t, m.Close())
	assert.True(t, h.closed)
}
