// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログの利用ユーザーを表す。
// PasswordHashはbcryptハッシュのみを保持し、平文パスワードは保持しない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// 有効期限内のセッションが存在することがログイン状態を意味する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻の時点でセッションが期限切れかどうかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
