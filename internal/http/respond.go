package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/internal/log"
	"github.com/lemonhall/oa-mvp/pkg/apperrors"
)

// respondError maps an error to its HTTP status and a stable error code.
// Errors outside the taxonomy are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.GetLogger().Errorf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal server error", "code": "INTERNAL"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
}

// bindJSON binds the request body and answers 400 itself on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error(), "code": "VALIDATION_ERROR"})
		return false
	}
	return true
}

// pathID parses a numeric path parameter and answers 400 itself on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter", "code": "VALIDATION_ERROR"})
		return 0, false
	}
	return id, true
}
