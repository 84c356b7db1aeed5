package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/kycklingar/dbsession/dbsession"
	"github.com/kycklingar/dbsession/middleware"
	"github.com/kycklingar/dbsession/session"
	"go.uber.org/zap"
)

type Config struct {
	// Token expected in the X-Admin-Token header, admin routes are off when empty
	AdminToken string `json:"admin_token" mapstructure:"admin_token"`
}

func (c *Config) Default() {
	c.AdminToken = ""
}

const (
	ErrInternal = "Internal Server Error"
	ErrNotFound = "Not Found"

	adminTokenHeader = "X-Admin-Token"
)

// Lister pages through stored sessions
type Lister interface {
	Search(dbsession.SearchOptions) ([]dbsession.Record, int, error)
}

type Handlers struct {
	cfg     Config
	manager *session.Manager
	lister  Lister
	scs     *scs.SessionManager
	log     *zap.Logger
}

// New wires the routes. lister and sm may be nil, their routes then answer 501.
func New(cfg Config, m *session.Manager, lister Lister, sm *scs.SessionManager, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}

	return &Handlers{
		cfg:     cfg,
		manager: m,
		lister:  lister,
		scs:     sm,
		log:     log,
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	sess := r.Group("/", middleware.Session(h.manager))
	sess.GET("/", h.visits)
	sess.POST("/logout", h.logout)

	r.Any("/scs/visits", h.scsVisits)

	admin := r.Group("/admin", h.requireAdmin)
	admin.GET("/sessions", h.listSessions)
	admin.POST("/gc", h.collectGarbage)
}

func (h *Handlers) requireAdmin(c *gin.Context) {
	token := c.GetHeader(adminTokenHeader)
	if h.cfg.AdminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ErrNotFound})
		return
	}

	c.Next()
}

func notImplemented(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "not supported by this session backend"})
}
