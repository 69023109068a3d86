package model

import "time"

// Comment は投稿に対するコメントを表す。
type Comment struct {
	ID        string
	Text      string
	UserID    string
	PostID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID はコメントの所有者（作成者）のユーザーIDを返す。
func (c *Comment) OwnerID() string {
	return c.UserID
}

// CommentWithAuthor はコメントとコメント投稿者名を結合した構造体。
type CommentWithAuthor struct {
	Comment
	AuthorName string
}
