package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/service"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Authenticator resolves an Authorization header to an identity.
type Authenticator interface {
	Authenticate(header string) (auth.Identity, error)
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// Auth rejects requests without a valid bearer token and stores the caller's
// identity on the request context.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, service.ErrUnauthorized) {
				msg = service.Message(err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
