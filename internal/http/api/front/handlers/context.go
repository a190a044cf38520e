package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/session"
)

// currentSession returns the authenticated session set by the middleware.
func currentSession(c *gin.Context) (session.Session, bool) {
	return session.FromContext(c)
}
