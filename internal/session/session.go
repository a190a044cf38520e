// Package session carries the authenticated user identity through a request.
// Handlers read an explicit Session instead of pulling ambient state.
package session

import "github.com/gin-gonic/gin"

// contextKey is the gin context key holding the session.
const contextKey = "session"

// Session identifies the authenticated user for one request.
type Session struct {
	UserID uint64
	Email  string
}

// Valid reports whether the session identifies a user.
func (s Session) Valid() bool {
	return s.UserID != 0
}

// Set stores the session on the gin context.
func Set(c *gin.Context, s Session) {
	c.Set(contextKey, s)
}

// FromContext returns the session stored on the gin context, if any.
func FromContext(c *gin.Context) (Session, bool) {
	value, ok := c.Get(contextKey)
	if !ok {
		return Session{}, false
	}
	s, ok := value.(Session)
	if !ok || !s.Valid() {
		return Session{}, false
	}
	return s, true
}
