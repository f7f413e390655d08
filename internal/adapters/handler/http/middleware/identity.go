package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
	ContextUserKey      = "userKey"
)

// IdentityVerifier validates tokens minted by the external identity provider
// and extracts the stable user key. The engine never issues tokens itself;
// the only contract is an HS256 signature over a shared secret with the
// expected issuer and a non-empty subject.
type IdentityVerifier struct {
	secretKey []byte
	issuer    string
}

func NewIdentityVerifier(secretKey, issuer string) *IdentityVerifier {
	return &IdentityVerifier{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

func (v *IdentityVerifier) UserKeyFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	if iss, ok := claims["iss"].(string); !ok || iss != v.issuer {
		return "", fmt.Errorf("invalid token issuer")
	}

	userKey, ok := claims["sub"].(string)
	if !ok || userKey == "" {
		return "", fmt.Errorf("invalid token subject")
	}

	return userKey, nil
}

func IdentityMiddleware(verifier *IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || fields[0] != authorizationType {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		userKey, err := verifier.UserKeyFromToken(fields[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, userKey)

		c.Next()
	}
}

func GetUserKey(c *gin.Context) (string, bool) {
	key, exists := c.Get(ContextUserKey)
	if !exists {
		return "", false
	}
	keyStr, ok := key.(string)
	return keyStr, ok && keyStr != ""
}
