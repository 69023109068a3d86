package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogapi/internal/middleware"
	"github.com/hitoshi/blogapi/internal/model"
)

// withActor はテスト用に認証済みActorをリクエストコンテキストに注入するヘルパー。
func withActor(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithActor(r.Context(), model.Actor{UserID: userID, SessionID: "session-" + userID})
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeErrorBody はエラーレスポンスを読み取るヘルパー。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

// fakeSigner は "signed:" プレフィックスを付与・検証するだけの署名器。
type fakeSigner struct{}

func (fakeSigner) Sign(value string) (string, error) { return "signed:" + value, nil }

// failingSigner は常に署名に失敗する署名器。
type failingSigner struct{}

func (failingSigner) Sign(string) (string, error) { return "", errors.New("encode failed") }

func (fakeSigner) Verify(signed string) (string, error) {
	v, ok := strings.CutPrefix(signed, "signed:")
	if !ok {
		return "", errors.New("signature mismatch")
	}
	return v, nil
}

// recordingMetrics は認証失敗とセッション作成の回数を記録する。
type recordingMetrics struct {
	authFailures    map[string]int
	sessionsCreated int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{authFailures: make(map[string]int)}
}

func (m *recordingMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
func (m *recordingMetrics) RecordAuthFailure(reason string) { m.authFailures[reason]++ }
func (m *recordingMetrics) RecordSessionCreated() { m.sessionsCreated++ }
func (m *recordingMetrics) RecordSessionsPurged(int64) {}
