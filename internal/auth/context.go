package auth

import "github.com/gin-gonic/gin"

// ContextClaims is the gin context key under which the JWT middleware stores
// the validated *Claims.
const ContextClaims = "auth_claims"

// MustClaims returns the validated claims set by the JWT middleware. Panics if
// the middleware did not run; protected routes always run it first.
func MustClaims(c *gin.Context) *Claims {
	return c.MustGet(ContextClaims).(*Claims)
}

// ClaimsFrom returns the validated claims if present.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
