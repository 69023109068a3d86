// Package post は投稿管理のドメインロジックを提供する。
package post

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

// FeedSize はRSSフィードに含める最新投稿の件数。
const FeedSize = 20

// CreateInput は投稿作成の入力。所有者は常にリクエストのactorとなる。
type CreateInput struct {
	Title   string
	Content string
}

// Service は投稿管理のサービス層。
// 作成・更新・削除時の所有権判定を担う。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
	}
}

// List は全投稿を投稿者名付きで新しい順に返す。
func (s *Service) List(ctx context.Context) ([]model.PostWithAuthor, error) {
	posts, err := s.postRepo.ListWithAuthor(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Latest はRSSフィード用に最新の投稿を返す。
func (s *Service) Latest(ctx context.Context) ([]model.PostWithAuthor, error) {
	posts, err := s.postRepo.ListLatestWithAuthor(ctx, FeedSize)
	if err != nil {
		return nil, fmt.Errorf("最新投稿の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Create はactorを所有者として投稿を作成する。
// タイトルは全タグを除去し、本文は許可リストでサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) (*model.PostWithAuthor, error) {
	if !actor.IsAuthenticated() {
		return nil, model.NewUnauthorizedError()
	}

	title := s.sanitizer.SanitizeText(in.Title)
	if title == "" {
		return nil, model.NewValidationError("title", "必須項目です")
	}
	content := s.sanitizer.SanitizeHTML(in.Content)
	if content == "" {
		return nil, model.NewValidationError("content", "必須項目です")
	}

	now := time.Now()
	p := &model.Post{
		ID:        model.NewID(),
		Title:     title,
		Content:   content,
		UserID:    actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", p.ID),
		slog.String("user_id", actor.UserID),
	)

	return s.reload(ctx, p.ID)
}

// Update は投稿のタイトル・本文を部分更新する。
// 投稿の所有者のみが更新できる。
func (s *Service) Update(ctx context.Context, actor model.Actor, postID string, patch model.PostPatch) (*model.PostWithAuthor, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError("title/content", "更新する項目を指定してください")
	}
	if patch.Title != nil {
		title := s.sanitizer.SanitizeText(*patch.Title)
		if title == "" {
			return nil, model.NewValidationError("title", "空にはできません")
		}
		patch.Title = &title
	}
	if patch.Content != nil {
		content := s.sanitizer.SanitizeHTML(*patch.Content)
		if content == "" {
			return nil, model.NewValidationError("content", "空にはできません")
		}
		patch.Content = &content
	}

	if !model.IsValidID(postID) {
		return nil, model.NewPostNotFoundError(postID)
	}
	p, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if !auth.Owns(actor, p) {
		return nil, model.NewForbiddenError("投稿")
	}

	ok, err := s.postRepo.Update(ctx, postID, patch, time.Now())
	if err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	if !ok {
		// 存在確認の後に削除された
		return nil, model.NewPostNotFoundError(postID)
	}

	return s.reload(ctx, postID)
}

// Delete はactorが所有する投稿を削除する。
// 投稿が存在しない場合と所有者でない場合は区別せずPOST_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, actor model.Actor, postID string) error {
	if !model.IsValidID(postID) || !actor.IsAuthenticated() {
		return model.NewPostNotFoundError(postID)
	}

	ok, err := s.postRepo.DeleteByIDAndUser(ctx, postID, actor.UserID)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewPostNotFoundError(postID)
	}

	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("user_id", actor.UserID),
	)
	return nil
}

func (s *Service) reload(ctx context.Context, postID string) (*model.PostWithAuthor, error) {
	p, err := s.postRepo.FindWithAuthorByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の再取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return p, nil
}
