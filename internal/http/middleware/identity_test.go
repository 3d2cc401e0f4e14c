package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity(t *testing.T) {
	r := newEngine()
	r.Use(Identity())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	if w := do(r, http.MethodGet, "/", map[string]string{UserIDHeader: "  u1 "}); w.Body.String() != "u1" {
		t.Fatalf("header identity = %q", w.Body.String())
	}
	if w := do(r, http.MethodGet, "/", nil); w.Body.String() != AnonymousUser {
		t.Fatalf("anonymous = %q", w.Body.String())
	}
}

func TestIdentity_EarlierValueWins(t *testing.T) {
	r := newEngine()
	r.Use(func(c *gin.Context) { c.Set(userIDKey, "from-auth"); c.Next() }, Identity())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	if w := do(r, http.MethodGet, "/", map[string]string{UserIDHeader: "spoofed"}); w.Body.String() != "from-auth" {
		t.Fatalf("UserID = %q", w.Body.String())
	}
}

func TestUserID_Fallbacks(t *testing.T) {
	if UserID(nil) != AnonymousUser {
		t.Fatal("nil context")
	}
	c := gin.CreateTestContextOnly(httptest.NewRecorder(), newEngine())
	if UserID(c) != AnonymousUser {
		t.Fatal("no request")
	}
	c.Set(userIDKey, 42)
	if UserID(c) != AnonymousUser {
		t.Fatal("wrong type must be ignored")
	}
}
