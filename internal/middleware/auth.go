package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"dilemmas/internal/auth"
	"dilemmas/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	PrincipalKey   = "principal"
	SessionUserKey = "user_id"
)

// PrincipalLookup resolves a user id stored in the session.
type PrincipalLookup interface {
	Principal(ctx context.Context, userID uint) (*auth.Principal, error)
}

// LoadPrincipal puts the caller's principal in the context when it can be
// resolved. A Bearer token wins over the cookie session. A bad token or a
// stale session leaves the request anonymous; AuthRequired decides whether
// that is acceptable.
func LoadPrincipal(tokens *auth.TokenIssuer, users PrincipalLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if p, err := tokens.Resolve(raw); err == nil {
				c.Set(PrincipalKey, p)
			}
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := sessionUserID(session.Get(SessionUserKey)); ok {
			p, err := users.Principal(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(PrincipalKey, p)
			case errors.Is(err, services.ErrUnauthorized):
				session.Delete(SessionUserKey)
				if err := session.Save(); err != nil {
					log.Printf("clear stale session: %v", err)
				}
			default:
				log.Printf("resolve session user %d: %v", userID, err)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous requests with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"message":    "authentication required",
				"request_id": RequestIDFrom(c),
			})
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated caller, or nil.
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func sessionUserID(v any) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id != 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	case uint64:
		return uint(id), id != 0
	default:
		return 0, false
	}
}
