package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogapi/internal/comment"
	"github.com/hitoshi/blogapi/internal/metrics"
	"github.com/hitoshi/blogapi/internal/model"
)

const commentDeletedMessage = "コメントを削除しました。"

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)
	Create(ctx context.Context, actor model.Actor, in comment.CreateInput) ([]model.CommentWithAuthor, error)
	Update(ctx context.Context, actor model.Actor, commentID, text string) (*model.Comment, error)
	Delete(ctx context.Context, actor model.Actor, commentID string) error
}

// CommentHandler はコメント管理のHTTPハンドラー。
type CommentHandler struct {
	errorWriter
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface, m metrics.MetricsCollector) *CommentHandler {
	return &CommentHandler{
		errorWriter: newErrorWriter(m),
		service:     service,
	}
}

type createCommentRequest struct {
	Comment string `json:"comment"`
	PostID  string `json:"post_id"`
}

type updateCommentRequest struct {
	Comment string `json:"comment"`
}

// ListComments は投稿のコメント一覧を返す。
// GET /api/comments/{postId}
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFromRequest(r); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	comments, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(comments))
}

// CreateComment はコメントを作成し、同じ投稿への他ユーザーのコメント一覧を返す。
// POST /api/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	others, err := h.service.Create(r.Context(), actor, comment.CreateInput{
		PostID: req.PostID,
		Text:   req.Comment,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(others))
}

// UpdateComment はコメント本文を更新する。コメントの投稿者のみ実行できる。
// PUT /api/comments/{commentId}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req updateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "commentId"), req.Comment)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(updated))
}

// DeleteComment はコメントを削除する。コメントの投稿者のみ実行できる。
// DELETE /api/comments/{commentId}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "commentId")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: commentDeletedMessage})
}
