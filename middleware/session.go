package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/kycklingar/dbsession/session"
)

const sessionKey = "session"

// Session starts the request session before the handler runs and saves it afterwards
func Session(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := m.Start(c.Writer, c.Request)
		c.Set(sessionKey, s)

		c.Next()

		// Failures are logged by the manager, the response is already out
		m.Save(s)
	}
}

// Current returns the session started by Session, or nil
func Current(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}

	s, _ := v.(*session.Session)
	return s
}
