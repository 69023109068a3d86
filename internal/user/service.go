// Package user はユーザー参照のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
)

// Service はユーザー参照のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetByID は指定IDのユーザーを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// GetByName はユーザー名の完全一致でユーザーを返す。
func (s *Service) GetByName(ctx context.Context, name string) (*model.User, error) {
	user, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Resolve はUUID形式であればIDとして、それ以外はユーザー名としてユーザーを検索する。
// UUID形式のユーザー名は登録できないため、検索結果は一意に定まる。
func (s *Service) Resolve(ctx context.Context, idOrName string) (*model.User, error) {
	if model.IsValidID(idOrName) {
		return s.GetByID(ctx, idOrName)
	}
	return s.GetByName(ctx, idOrName)
}
