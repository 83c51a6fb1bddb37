package httputil

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
)

var requestIDPattern = regexp.MustCompile(`^req_[0-9a-z]{8,}[0-9a-z]{6}$`)

func TestNewRequestID_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		if !requestIDPattern.MatchString(id) {
			t.Fatalf("unexpected request id format: %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("expected request ids to be mostly unique, got %d distinct of 100", len(seen))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var fromCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if fromCtx == "" || rec.Header().Get(HeaderRequestID) != fromCtx {
		t.Errorf("expected generated id in context and header, got ctx=%q header=%q", fromCtx, rec.Header().Get(HeaderRequestID))
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderRequestID, "req_client")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if fromCtx != "req_client" {
		t.Errorf("expected incoming id to be honoured, got %q", fromCtx)
	}
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req_panic")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if rid := rec.Header().Get(HeaderRequestID); rid != "req_panic" {
		t.Errorf("expected request id header, got %q", rid)
	}
}
