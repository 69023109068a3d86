package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogapi/internal/metrics"
	"github.com/hitoshi/blogapi/internal/middleware"
	"github.com/hitoshi/blogapi/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// messageResponse は処理結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// errorWriter はサービス層のエラーをHTTPレスポンスに変換する。
// 認証・認可の失敗はメトリクスにも記録する。
type errorWriter struct {
	metrics metrics.MetricsCollector
}

func newErrorWriter(m metrics.MetricsCollector) errorWriter {
	if m == nil {
		m = metrics.NopCollector{}
	}
	return errorWriter{metrics: m}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは内部エラーとして扱い、詳細はrequest_id付きでログのみに記録する。
func (ew errorWriter) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		ew.recordAuthFailure(apiErr)
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w, r)
}

func (ew errorWriter) recordAuthFailure(apiErr *model.APIError) {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials:
		ew.metrics.RecordAuthFailure(metrics.AuthFailureInvalidCredentials)
	case model.ErrCodeUnauthorized:
		ew.metrics.RecordAuthFailure(metrics.AuthFailureUnauthorized)
	case model.ErrCodeForbidden:
		ew.metrics.RecordAuthFailure(metrics.AuthFailureForbidden)
	}
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed,
		model.ErrCodeInvalidRequest,
		model.ErrCodeUserAlreadyExists,
		model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound,
		model.ErrCodePostNotFound,
		model.ErrCodeCommentNotFound,
		model.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをJSONとして読み取る。
// 解析に失敗した場合はINVALID_REQUESTのAPIErrorを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewInvalidRequestError()
	}
	return nil
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// actorFromRequest は認証済みActorを取得する。
// 認証ゲートを通過していない場合はUNAUTHORIZEDのAPIErrorを返す。
func actorFromRequest(r *http.Request) (model.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return model.Actor{}, model.NewUnauthorizedError()
	}
	return actor, nil
}
