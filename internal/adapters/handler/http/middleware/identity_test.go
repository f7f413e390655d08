package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillmind-app/checkin-engine/internal/adapters/handler/http/middleware"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "stillmind-identity"
)

func mintToken(t *testing.T, secret, issuer, subject string, expiresIn time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIdentityVerifier_UserKeyFromToken(t *testing.T) {
	verifier := middleware.NewIdentityVerifier(testSecret, testIssuer)

	t.Run("Valid token yields the subject", func(t *testing.T) {
		token := mintToken(t, testSecret, testIssuer, "user-42", time.Hour)

		userKey, err := verifier.UserKeyFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", userKey)
	})

	t.Run("Wrong secret rejected", func(t *testing.T) {
		token := mintToken(t, "other-secret", testIssuer, "user-42", time.Hour)

		_, err := verifier.UserKeyFromToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong issuer rejected", func(t *testing.T) {
		token := mintToken(t, testSecret, "someone-else", "user-42", time.Hour)

		_, err := verifier.UserKeyFromToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired token rejected", func(t *testing.T) {
		token := mintToken(t, testSecret, testIssuer, "user-42", -time.Minute)

		_, err := verifier.UserKeyFromToken(token)
		assert.Error(t, err)
	})

	t.Run("Empty subject rejected", func(t *testing.T) {
		token := mintToken(t, testSecret, testIssuer, "", time.Hour)

		_, err := verifier.UserKeyFromToken(token)
		assert.Error(t, err)
	})

	t.Run("Garbage rejected", func(t *testing.T) {
		_, err := verifier.UserKeyFromToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier := middleware.NewIdentityVerifier(testSecret, testIssuer)

	router := gin.New()
	router.Use(middleware.IdentityMiddleware(verifier))
	router.GET("/whoami", func(c *gin.Context) {
		userKey, ok := middleware.GetUserKey(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_key": userKey})
	})

	do := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Bearer token passes through", func(t *testing.T) {
		token := mintToken(t, testSecret, testIssuer, "user-99", time.Hour)

		w := do("Bearer " + token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-99")
	})

	t.Run("Missing header blocked", func(t *testing.T) {
		w := do("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed header blocked", func(t *testing.T) {
		w := do("Token abcdef")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Tampered token blocked", func(t *testing.T) {
		token := mintToken(t, testSecret, testIssuer, "user-99", time.Hour)

		w := do("Bearer " + token + "x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
