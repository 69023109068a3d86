package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogapi/internal/metrics"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	ListUsers(ctx context.Context) ([]userResponse, error)
	// GetUser はUUID形式であればIDとして、それ以外はユーザー名として検索する。
	GetUser(ctx context.Context, idOrName string) (*userResponse, error)
}

// UserHandler はユーザー参照のHTTPハンドラー。
type UserHandler struct {
	errorWriter
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, m metrics.MetricsCollector) *UserHandler {
	return &UserHandler{
		errorWriter: newErrorWriter(m),
		service:     service,
	}
}

// ListUsers は全ユーザーを返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser はIDまたはユーザー名で1件のユーザーを返す。
// GET /api/users/{idOrName}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFromRequest(r); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	u, err := h.service.GetUser(r.Context(), chi.URLParam(r, "idOrName"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
