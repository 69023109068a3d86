// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blogapi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// List は全ユーザーを作成日時の昇順で取得する。
	List(ctx context.Context) ([]*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByName はユーザー名の完全一致でユーザーを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名またはメールアドレスが重複する場合はErrDuplicateをラップして返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は指定時刻時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// ListWithAuthor は全投稿を投稿者名付きで新しい順に取得する。
	ListWithAuthor(ctx context.Context) ([]model.PostWithAuthor, error)

	// ListLatestWithAuthor は最新limit件の投稿を投稿者名付きで取得する。
	ListLatestWithAuthor(ctx context.Context, limit int) ([]model.PostWithAuthor, error)

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindWithAuthorByID は指定IDの投稿を投稿者名付きで取得する。見つからない場合はnilを返す。
	FindWithAuthorByID(ctx context.Context, id string) (*model.PostWithAuthor, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update はpatchで指定されたフィールドのみを更新する。
	// 対象の投稿が存在しない場合はfalseを返す。
	Update(ctx context.Context, id string, patch model.PostPatch, updatedAt time.Time) (bool, error)

	// DeleteByIDAndUser は指定ユーザーが所有する投稿を削除する。
	// 該当行がない場合（ID誤りまたは所有者不一致）はfalseを返す。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPost は投稿の全コメントをコメント投稿者名付きで古い順に取得する。
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)

	// ListByPostExcludingUser は投稿のコメントのうち、指定ユーザー以外のものを取得する。
	ListByPostExcludingUser(ctx context.Context, postID, userID string) ([]model.CommentWithAuthor, error)

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// UpdateText はコメント本文を更新する。対象が存在しない場合はfalseを返す。
	UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error)

	// Delete は指定IDのコメントを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
