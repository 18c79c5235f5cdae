package httperr

import (
	"github.com/gin-gonic/gin"
)

// AbortWithError renders the flat error body and files the cause on the
// context so the logging middleware can report it.
func AbortWithError(c *gin.Context, status int, err error, msg string) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
