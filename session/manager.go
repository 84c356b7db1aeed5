package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	CookieName   string `json:"cookie_name" mapstructure:"cookie_name"`
	CookieSecure bool   `json:"cookie_secure" mapstructure:"cookie_secure"`

	// Seconds of inactivity after which a session may be collected
	MaxLifetime int `json:"max_lifetime" mapstructure:"max_lifetime"`

	// A request triggers a collection with a chance of GCProbability/GCDivisor
	GCProbability int `json:"gc_probability" mapstructure:"gc_probability"`
	GCDivisor     int `json:"gc_divisor" mapstructure:"gc_divisor"`

	// Seconds between background collections, 0 disables them
	GCInterval int `json:"gc_interval" mapstructure:"gc_interval"`
}

func (c *Config) Default() {
	c.CookieName = "session"
	c.MaxLifetime = 1440
	c.GCProbability = 1
	c.GCDivisor = 100
	c.GCInterval = 0
}

// Manager starts, saves and destroys sessions on behalf of HTTP handlers
type Manager struct {
	handler Handler
	cfg     Config
	log     *zap.Logger

	// roll returns a number in [0, n)
	roll func(n int) int
}

// NewManager registers h as the session storage. h is opened immediately.
func NewManager(h Handler, cfg Config, log *zap.Logger) (*Manager, error) {
	if h == nil {
		return nil, fmt.Errorf("session: no handler")
	}

	if err := h.Open(); err != nil {
		return nil, fmt.Errorf("session: open handler: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}

	return &Manager{
		handler: h,
		cfg:     cfg,
		log:     log,
		roll:    rand.IntN,
	}, nil
}

// Start loads the session named by the request cookie, or begins a new one.
// A cookie naming no stored session is never adopted: the client is handed a
// fresh id instead. Storage failures are logged and also yield a fresh session
// so the stored one is not overwritten on save.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request) *Session {
	s := m.load(r)

	http.SetCookie(w, m.cookie(s.ID, 0))

	m.maybeGC()

	return s
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return newSession(generateKey(keyLength))
	}

	payload, err := m.handler.Read(c.Value)
	if err != nil {
		m.log.Warn("failed to read session", zap.String("session", prefix(c.Value)), zap.Error(err))
		return newSession(generateKey(keyLength))
	}

	if len(payload) == 0 {
		return newSession(generateKey(keyLength))
	}

	s := newSession(c.Value)
	if err = s.decode(payload); err != nil {
		m.log.Warn("discarding undecodable session", zap.String("session", prefix(c.Value)), zap.Error(err))
	}

	return s
}

// Save writes the session back to storage
func (m *Manager) Save(s *Session) error {
	if s.destroyed {
		return nil
	}

	payload, err := s.encode()
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	if err = m.handler.Write(s.ID, payload); err != nil {
		m.log.Error("failed to write session", zap.String("session", prefix(s.ID)), zap.Error(err))
		return err
	}

	return nil
}

// Destroy removes the session from storage and expires the client cookie
func (m *Manager) Destroy(w http.ResponseWriter, s *Session) error {
	s.destroyed = true
	s.Values = make(map[string]any)

	http.SetCookie(w, m.cookie("", -1))

	if err := m.handler.Destroy(s.ID); err != nil {
		m.log.Error("failed to destroy session", zap.String("session", prefix(s.ID)), zap.Error(err))
		return err
	}

	return nil
}

// GC removes sessions idle for longer than the configured lifetime
func (m *Manager) GC() error {
	err := m.handler.GC(m.cfg.MaxLifetime)
	if err != nil {
		m.log.Error("session garbage collection failed", zap.Error(err))
	}

	return err
}

// CollectGarbage runs GC every GCInterval seconds until ctx is done
func (m *Manager) CollectGarbage(ctx context.Context) {
	if m.cfg.GCInterval <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(m.cfg.GCInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.GC()
		}
	}
}

func (m *Manager) Close() error {
	return m.handler.Close()
}

func (m *Manager) maybeGC() {
	if m.cfg.GCProbability <= 0 || m.cfg.GCDivisor <= 0 {
		return
	}

	if m.roll(m.cfg.GCDivisor) < m.cfg.GCProbability {
		m.GC()
	}
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// prefix shortens a session id for logging
func prefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
