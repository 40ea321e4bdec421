package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub string, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthRequired(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"host_id": HostID(c)})
	})
	return r
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "host-1", testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "host-1")
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	r := authTestRouter()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong secret", "Bearer " + signToken(t, "host-1", "other-secret")},
		{"garbage", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestStoreHostCheckerVerifiesAtActionTime(t *testing.T) {
	st := store.NewMemStore()
	checker := NewStoreHostChecker(st)
	ctx := context.Background()

	// Unknown host.
	assert.ErrorIs(t, checker.Verify(ctx, "ghost"), game.ErrAuthExpired)

	// Active host with a future subscription.
	future := time.Now().Add(24 * time.Hour)
	st.PutHost(models.Host{ID: "h1", IsActive: true, SubscriptionEndsAt: &future})
	assert.NoError(t, checker.Verify(ctx, "h1"))

	// Deactivated host.
	st.PutHost(models.Host{ID: "h2", IsActive: false})
	assert.ErrorIs(t, checker.Verify(ctx, "h2"), game.ErrAuthExpired)

	// Lapsed subscription: the check happens at the moment of the action.
	past := time.Now().Add(-time.Minute)
	st.PutHost(models.Host{ID: "h3", IsActive: true, SubscriptionEndsAt: &past})
	assert.ErrorIs(t, checker.Verify(ctx, "h3"), game.ErrAuthExpired)
}
