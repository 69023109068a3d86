package handler

import (
	"context"

	"github.com/hitoshi/blogapi/internal/user"
)

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
// ドメインのUserをパスワードハッシュを含まないレスポンス型に変換する。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// ListUsers は全ユーザーをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) ListUsers(ctx context.Context) ([]userResponse, error) {
	users, err := a.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	return toUserResponses(users), nil
}

// GetUser はIDまたはユーザー名でユーザーを検索しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) GetUser(ctx context.Context, idOrName string) (*userResponse, error) {
	u, err := a.svc.Resolve(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}
