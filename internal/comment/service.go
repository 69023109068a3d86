// Package comment はコメント管理のドメインロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/blogapi/internal/auth"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
	"github.com/hitoshi/blogapi/internal/security"
)

// PostFinder はコメント対象の投稿の存在確認インターフェース。
type PostFinder interface {
	FindByID(ctx context.Context, id string) (*model.Post, error)
}

// CreateInput はコメント作成の入力。
type CreateInput struct {
	PostID string
	Text   string
}

// Service はコメント管理のサービス層。
type Service struct {
	commentRepo repository.CommentRepository
	posts       PostFinder
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	posts PostFinder,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		posts:       posts,
		sanitizer:   sanitizer,
	}
}

// ListByPost は投稿の全コメントを返す。
// 投稿が存在しない場合はPOST_NOT_FOUND、コメントが0件の場合は空スライスを返す。
func (s *Service) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// Create はactorを投稿者としてコメントを作成し、
// 同じ投稿に対する他のユーザーのコメント一覧を返す。作成したコメント自体は含まない。
func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) ([]model.CommentWithAuthor, error) {
	if !actor.IsAuthenticated() {
		return nil, model.NewUnauthorizedError()
	}

	text := s.sanitizer.SanitizeText(in.Text)
	if text == "" {
		return nil, model.NewValidationError("comment", "必須項目です")
	}
	if in.PostID == "" {
		return nil, model.NewValidationError("post_id", "必須項目です")
	}
	if err := s.ensurePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &model.Comment{
		ID:        model.NewID(),
		Text:      text,
		UserID:    actor.UserID,
		PostID:    in.PostID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	slog.Info("comment created",
		slog.String("comment_id", c.ID),
		slog.String("post_id", c.PostID),
		slog.String("user_id", actor.UserID),
	)

	others, err := s.commentRepo.ListByPostExcludingUser(ctx, in.PostID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return others, nil
}

// Update はコメント本文を更新する。コメントの投稿者のみが更新できる。
func (s *Service) Update(ctx context.Context, actor model.Actor, commentID, text string) (*model.Comment, error) {
	text = s.sanitizer.SanitizeText(text)
	if text == "" {
		return nil, model.NewValidationError("comment", "必須項目です")
	}

	if _, err := s.findOwned(ctx, actor, commentID); err != nil {
		return nil, err
	}

	ok, err := s.commentRepo.UpdateText(ctx, commentID, text, time.Now())
	if err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewCommentNotFoundError(commentID)
	}

	updated, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの再取得に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	return updated, nil
}

// Delete はコメントを削除する。コメントの投稿者のみが削除できる。
func (s *Service) Delete(ctx context.Context, actor model.Actor, commentID string) error {
	if _, err := s.findOwned(ctx, actor, commentID); err != nil {
		return err
	}

	ok, err := s.commentRepo.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewCommentNotFoundError(commentID)
	}

	slog.Info("comment deleted",
		slog.String("comment_id", commentID),
		slog.String("user_id", actor.UserID),
	)
	return nil
}

// findOwned はコメントを取得し、actorが投稿者であることを確認する。
func (s *Service) findOwned(ctx context.Context, actor model.Actor, commentID string) (*model.Comment, error) {
	if !model.IsValidID(commentID) {
		return nil, model.NewCommentNotFoundError(commentID)
	}

	c, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	if !auth.Owns(actor, c) {
		return nil, model.NewForbiddenError("コメント")
	}
	return c, nil
}

// ensurePost は投稿の存在を確認する。
func (s *Service) ensurePost(ctx context.Context, postID string) error {
	if !model.IsValidID(postID) {
		return model.NewPostNotFoundError(postID)
	}

	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}
