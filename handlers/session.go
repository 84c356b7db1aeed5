package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kycklingar/dbsession/dbsession"
	"github.com/kycklingar/dbsession/middleware"
)

func (h *Handlers) visits(c *gin.Context) {
	s := middleware.Current(c)

	visits := s.Int("visits") + 1
	s.Set("visits", visits)

	c.JSON(http.StatusOK, gin.H{"visits": visits})
}

func (h *Handlers) logout(c *gin.Context) {
	if h.internalError(c, h.manager.Destroy(c.Writer, middleware.Current(c))) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) scsVisits(c *gin.Context) {
	if h.scs == nil {
		notImplemented(c)
		return
	}

	h.scs.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visits := h.scs.GetInt(r.Context(), "visits") + 1
		h.scs.Put(r.Context(), "visits", visits)

		// scs buffers the body to add its cookie, write through w
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(gin.H{"visits": visits})
	})).ServeHTTP(c.Writer, c.Request)
}

func unixParam(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}

	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(sec, 0), nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}

	return strconv.Atoi(v)
}

func (h *Handlers) listSessions(c *gin.Context) {
	if h.lister == nil {
		notImplemented(c)
		return
	}

	var (
		opts dbsession.SearchOptions
		err  error
	)

	if opts.ActiveSince, err = unixParam(c, "since"); badRequest(c, err) {
		return
	}
	if opts.ActiveUntil, err = unixParam(c, "until"); badRequest(c, err) {
		return
	}
	if opts.Limit, err = intParam(c, "limit"); badRequest(c, err) {
		return
	}
	if opts.Offset, err = intParam(c, "offset"); badRequest(c, err) {
		return
	}

	records, count, err := h.lister.Search(opts)
	if h.internalError(c, err) {
		return
	}

	type session struct {
		dbsession.Record
		Idle string `json:"idle"`
	}

	sessions := make([]session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, session{r, r.LastActivity.Elapsed()})
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    count,
		"sessions": sessions,
	})
}

func (h *Handlers) collectGarbage(c *gin.Context) {
	if h.internalError(c, h.manager.GC()) {
		return
	}

	c.Status(http.StatusNoContent)
}
