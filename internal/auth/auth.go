// Package auth verifies bearer tokens issued by the identity provider and
// exposes the acting identity to HTTP handlers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const contextKey = "auth.claims"

// Claims is the token payload: directory user ID in sub, display identity,
// superuser flag and permission codes.
type Claims struct {
	Name        string   `json:"name,omitempty"`
	Username    string   `json:"username"`
	Superuser   bool     `json:"superuser,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the display identity tasks are matched against: the full
// name when present, otherwise the login name.
func (c *Claims) Identity() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Username
}

// Actor converts the claims into a workflow actor. Superusers act with the
// elevated override.
func (c *Claims) Actor() approval.Actor {
	return approval.Actor{Name: c.Identity(), Elevated: c.Superuser}
}

// Has reports whether the claims carry perm.
func (c *Claims) Has(perm string) bool {
	if c.Superuser {
		return true
	}
	for _, p := range c.Permissions {
		if p == perm || p == directory.PermAll {
			return true
		}
	}
	return false
}

// Issue signs claims with HS256. A positive ttl sets the expiry.
func Issue(secret []byte, claims Claims, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: signing secret is empty")
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return token, nil
}

// Parse verifies an HS256 token and returns its claims.
func Parse(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims.Identity() == "" {
		return nil, errors.New("auth: token carries no identity")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the context.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := Parse(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(contextKey, claims)
		c.Next()
	}
}

// RequirePermission rejects requests whose claims lack perm.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := FromContext(c)
		if claims == nil || !claims.Has(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing permission " + perm})
			return
		}
		c.Next()
	}
}

// FromContext returns the claims stored by Middleware, or nil.
func FromContext(c *gin.Context) *Claims {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
