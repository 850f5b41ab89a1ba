package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
	r.POST("/rides", func(c *gin.Context) {
		if _, has := GetIdempotencyKey(c); has {
			t.Fatalf("no key expected without header")
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rides", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdempotencyValidator_StashesValidKey(t *testing.T) {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
	r.POST("/rides", func(c *gin.Context) {
		key, has := GetIdempotencyKey(c)
		if !has || key != "order-2026-03-01:retry.1" {
			t.Fatalf("key = %q, has = %v", key, has)
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/rides", nil)
	req.Header.Set(HeaderIdempotencyKey, "order-2026-03-01:retry.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	cases := map[string]string{
		"illegal chars": "has spaces here",
		"too long":      strings.Repeat("k", 201),
	}
	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
			r.POST("/rides", func(c *gin.Context) { c.Status(http.StatusCreated) })

			req := httptest.NewRequest(http.MethodPost, "/rides", nil)
			req.Header.Set(HeaderIdempotencyKey, key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestIdempotencyValidator_MarksReplay(t *testing.T) {
	var lookupUser, lookupKey string
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		lookupUser, lookupKey = userID, key
		return true, nil
	}

	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/rides", func(c *gin.Context) {
		if !IsReplay(c) {
			t.Fatalf("replay flag not set")
		}
		if !IsRateBypass(c) {
			t.Fatalf("rate bypass flag not set")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/rides", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	req.Header.Set("X-User-ID", "user123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if lookupUser != "user123" || lookupKey != "key-1" {
		t.Fatalf("lookup saw %q/%q", lookupUser, lookupKey)
	}
}

func TestIdempotencyValidator_LookupMissIsNotReplay(t *testing.T) {
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		return false, nil
	}

	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/rides", func(c *gin.Context) {
		if IsReplay(c) || IsRateBypass(c) {
			t.Fatalf("flags must stay unset on lookup miss")
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/rides", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCallerID_DemoFallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := callerID(c); got != "demo-user" {
		t.Fatalf("callerID = %q, want demo-user", got)
	}
	c.Request.Header.Set("X-User-ID", "u7")
	if got := callerID(c); got != "u7" {
		t.Fatalf("callerID = %q, want u7", got)
	}
}
