package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemEngine(opts IdempotencyOptions, lookup IdempotencyLookup) *gin.Engine {
	r := newEngine()
	r.Use(Identity(), IdempotencyValidator(opts, lookup))
	h := func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c), "bypass": IsRateBypass(c)})
	}
	r.POST("/sessions/:id/messages", h)
	r.GET("/sessions/:id/messages", h)
	return r
}

func TestIdempotency_NoHeaderAndNonPost(t *testing.T) {
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	r := idemEngine(IdempotencyOptions{}, lookup)

	w := do(r, http.MethodPost, "/sessions/s1/messages", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"key":""`) {
		t.Fatalf("no header: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/sessions/s1/messages", map[string]string{HeaderIdempotencyKey: "bad key!"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET must ignore the header, got %d", w.Code)
	}
	if called {
		t.Fatal("lookup must not run")
	}
}

func TestIdempotency_Validation(t *testing.T) {
	r := idemEngine(IdempotencyOptions{MaxLen: 8}, nil)
	for _, k := range []string{"has space", "123456789", "ünicode"} {
		w := do(r, http.MethodPost, "/sessions/s1/messages", map[string]string{HeaderIdempotencyKey: k})
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: %d %s", k, w.Code, w.Body.String())
		}
	}
	w := do(r, http.MethodPost, "/sessions/s1/messages", map[string]string{HeaderIdempotencyKey: "k-1"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"key":"k-1"`) {
		t.Fatalf("valid key: %d %s", w.Code, w.Body.String())
	}

	custom := idemEngine(IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, nil)
	if w := do(custom, http.MethodPost, "/sessions/s1/messages", map[string]string{HeaderIdempotencyKey: "abc"}); w.Code != http.StatusBadRequest {
		t.Fatalf("custom pattern: %d", w.Code)
	}
}

func TestIdempotency_LookupMarksReplay(t *testing.T) {
	var gotUser, gotSession, gotKey string
	lookup := func(_ context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
		if now.IsZero() {
			t.Error("now must be set")
		}
		gotUser, gotSession, gotKey = userID, sessionID, key
		return key == "seen", nil
	}
	r := idemEngine(IdempotencyOptions{}, lookup)

	w := do(r, http.MethodPost, "/sessions/s42/messages", map[string]string{HeaderIdempotencyKey: "seen", UserIDHeader: "u9"})
	if !strings.Contains(w.Body.String(), `"replay":true`) || !strings.Contains(w.Body.String(), `"bypass":true`) {
		t.Fatalf("replay flags: %s", w.Body.String())
	}
	if gotUser != "u9" || gotSession != "s42" || gotKey != "seen" {
		t.Fatalf("lookup args: %q %q %q", gotUser, gotSession, gotKey)
	}

	w = do(r, http.MethodPost, "/sessions/s42/messages", map[string]string{HeaderIdempotencyKey: "fresh"})
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("fresh key: %s", w.Body.String())
	}
	if gotUser != AnonymousUser {
		t.Fatalf("anonymous lookup user = %q", gotUser)
	}
}

func TestIdempotency_LookupErrorIsNotReplay(t *testing.T) {
	captureLogs(t)
	r := idemEngine(IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (bool, error) {
		return false, errors.New("db locked")
	})
	w := do(r, http.MethodPost, "/sessions/s1/messages", map[string]string{HeaderIdempotencyKey: "k"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("lookup error: %d %s", w.Code, w.Body.String())
	}
}
