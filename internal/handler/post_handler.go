package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogapi/internal/metrics"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/post"
)

const postDeletedMessage = "投稿を削除しました。"

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context) ([]model.PostWithAuthor, error)
	Latest(ctx context.Context) ([]model.PostWithAuthor, error)
	Create(ctx context.Context, actor model.Actor, in post.CreateInput) (*model.PostWithAuthor, error)
	Update(ctx context.Context, actor model.Actor, postID string, patch model.PostPatch) (*model.PostWithAuthor, error)
	Delete(ctx context.Context, actor model.Actor, postID string) error
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	errorWriter
	service PostServiceInterface
	feed    FeedConfig
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, feed FeedConfig, m metrics.MetricsCollector) *PostHandler {
	return &PostHandler{
		errorWriter: newErrorWriter(m),
		service:     service,
		feed:        feed,
	}
}

// createPostRequest は投稿作成リクエスト。
// ボディにuser_idが含まれていても無視し、所有者は常にセッションのユーザーとなる。
type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updatePostRequest は投稿更新リクエスト。省略したフィールドは変更しない。
type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ListPosts は全投稿を投稿者名付きで返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(posts))
}

// CreatePost はセッションのユーザーを所有者として投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), actor, post.CreateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(created))
}

// UpdatePost は投稿のタイトル・本文を部分更新する。所有者のみ実行できる。
// PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req updatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), model.PostPatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// DeletePost は投稿を削除する。
// DELETE /api/posts/{id}
// 存在しない投稿と他人の投稿はどちらも404となり区別できない。
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: postDeletedMessage})
}

// Feed は最新の投稿をRSS 2.0で返す。
// GET /api/posts/feed.xml
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Latest(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeRSS(w, r, h.feed, posts)
}
