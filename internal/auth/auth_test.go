package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	token, err := Issue(secret, Claims{
		Name:        "Zhang Wei",
		Username:    "zwei",
		Permissions: []string{directory.PermAudit},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u-1",
		},
	}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := Parse(secret, token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "u-1" || claims.Identity() != "Zhang Wei" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.Has(directory.PermAudit) || claims.Has(directory.PermSettings) {
		t.Errorf("Has: audit=%v settings=%v", claims.Has(directory.PermAudit), claims.Has(directory.PermSettings))
	}
	if a := claims.Actor(); a.Name != "Zhang Wei" || a.Elevated {
		t.Errorf("Actor = %+v", a)
	}
}

func TestParse_Rejects(t *testing.T) {
	valid, err := Issue(secret, Claims{Username: "zwei"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, err := Issue(secret, Claims{Username: "zwei"}, -time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// A negative ttl leaves the expiry unset, so build one explicitly.
	expired, err = jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:         "zwei",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	anonymous, err := Issue(secret, Claims{}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "zwei"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other"), valid},
		{"expired", secret, expired},
		{"no identity", secret, anonymous},
		{"alg none", secret, none},
		{"garbage", secret, "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.secret, tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIssue_EmptySecret(t *testing.T) {
	if _, err := Issue(nil, Claims{Username: "zwei"}, 0); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestClaims_Superuser(t *testing.T) {
	c := &Claims{Username: "admin", Superuser: true}
	if !c.Has(directory.PermSettings) {
		t.Error("superuser should hold every permission")
	}
	if !c.Actor().Elevated {
		t.Error("superuser actor should be elevated")
	}
	if (&Claims{Permissions: []string{directory.PermAll}}).Has(directory.PermAudit) != true {
		t.Error("wildcard permission should match")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/who", Middleware(secret), RequirePermission(directory.PermAudit), func(c *gin.Context) {
		c.String(http.StatusOK, FromContext(c).Identity())
	})

	auditor, _ := Issue(secret, Claims{Username: "zwei", Name: "Zhang Wei", Permissions: []string{directory.PermAudit}}, time.Hour)
	reader, _ := Issue(secret, Claims{Username: "reader"}, time.Hour)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"missing permission", "Bearer " + reader, http.StatusForbidden, ""},
		{"ok", "Bearer " + auditor, http.StatusOK, "Zhang Wei"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}
