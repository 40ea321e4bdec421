package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/store"
)

// AuthRequired resolves the acting host from a Bearer token issued by the
// external auth collaborator and stores the host id on the request context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		c.Set("host_id", sub)
		c.Next()
	}
}

// HostID reads the authenticated host id off the gin context.
func HostID(c *gin.Context) string {
	return c.GetString("host_id")
}

// StoreHostChecker verifies host activity against the stored host record at
// the moment of the action. Implements game.HostChecker.
type StoreHostChecker struct {
	st store.Store
}

func NewStoreHostChecker(st store.Store) *StoreHostChecker {
	return &StoreHostChecker{st: st}
}

func (c *StoreHostChecker) Verify(ctx context.Context, hostID string) error {
	h, err := c.st.Host(ctx, hostID)
	if err != nil {
		return game.ErrAuthExpired
	}
	if h.Expired(time.Now()) {
		return game.ErrAuthExpired
	}
	return nil
}
