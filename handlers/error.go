package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func badRequest(c *gin.Context, err error) bool {
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return true
	}
	return false
}

func (h *Handlers) internalError(c *gin.Context, err error) bool {
	if err != nil {
		_, fn, line, _ := runtime.Caller(1)
		h.log.Error("internal error",
			zap.String("caller", fn),
			zap.Int("line", line),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrInternal})
		return true
	}
	return false
}
