package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	c.Retry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	_, raw, err := c.DoJSON(context.Background(), http.MethodPost, "/x", nil, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("DoJSON() err=%v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("raw=%q", raw)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls=%d", got)
	}
}

func TestDoJSON_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient Balance"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	c.Retry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	_, raw, err := c.DoJSON(context.Background(), http.MethodPost, "/x", nil, nil)
	if err == nil {
		t.Fatal("DoJSON() err=nil")
	}
	se, ok := err.(*HTTPStatusError)
	if !ok {
		t.Fatalf("err=%T", err)
	}
	if se.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status=%d", se.StatusCode)
	}
	if string(raw) == "" || string(se.Body) == "" {
		t.Fatal("missing error body")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}

func TestRetrySleep_RespectsRetryAfter(t *testing.T) {
	c, err := New("https://example.test", nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	c.Retry.RespectRetryAfter = true
	c.Retry.MaxRetryAfter = 5 * time.Second

	hdr := make(http.Header)
	hdr.Set("Retry-After", "2")
	se := &HTTPStatusError{StatusCode: http.StatusTooManyRequests, Header: hdr}

	if got := c.retrySleep(se, 0); got != 2*time.Second {
		t.Fatalf("sleep=%v", got)
	}

	// Cap applies.
	hdr.Set("Retry-After", "600")
	if got := c.retrySleep(se, 0); got != 5*time.Second {
		t.Fatalf("capped sleep=%v", got)
	}
}

func TestDoStream_SurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	_, err = c.DoStream(context.Background(), http.MethodPost, "/x", nil, map[string]any{"stream": true})
	se, ok := err.(*HTTPStatusError)
	if !ok {
		t.Fatalf("err=%T %v", err, err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", se.StatusCode)
	}
}
