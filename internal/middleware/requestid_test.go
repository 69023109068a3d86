package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesUUID(t *testing.T) {
	var captured string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if _, err := uuid.Parse(captured); err != nil {
		t.Fatalf("request id %q is not a UUID: %v", captured, err)
	}
	if got := w.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("%s header = %q, want %q", RequestIDHeader, got, captured)
	}
}

func TestRequestIDMiddleware_KeepsValidClientID(t *testing.T) {
	clientID := uuid.New().String()

	var captured string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(RequestIDHeader, clientID)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != clientID {
		t.Errorf("request id = %q, want %q", captured, clientID)
	}
}

func TestRequestIDMiddleware_ReplacesInvalidClientID(t *testing.T) {
	var captured string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured == "<script>" {
		t.Error("expected invalid client request id to be replaced")
	}
	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("request id %q is not a UUID", captured)
	}
}

func TestRequestIDFromContext_Missing_ReturnsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Errorf("request id = %q, want empty", got)
	}
}
