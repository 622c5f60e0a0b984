package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/febry-setyawan/loyalty/internal/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	const signingKey = "test-signing-key"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		service, ok := ServiceFromContext(r.Context())
		require.True(t, ok, "service name missing from context")
		assert.Equal(t, "checkout", service)
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(signingKey)(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := jwt.BuildString("checkout", signingKey, time.Hour)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.Header.Set("Authorization", token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token, err := jwt.BuildString("checkout", "other-key", time.Hour)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.Header.Set("Authorization", token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwt.BuildString("checkout", signingKey, -time.Hour)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.Header.Set("Authorization", token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
