package model

import "time"

// Post はユーザーが投稿したブログ記事を表す。
// UserIDは作成時に決まり、以後変更されない。
type Post struct {
	ID        string
	Title     string
	Content   string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID は投稿の所有者（作成者）のユーザーIDを返す。
func (p *Post) OwnerID() string {
	return p.UserID
}

// PostWithAuthor は投稿と投稿者名を結合した構造体。
// 投稿者の情報は名前のみを公開する。
type PostWithAuthor struct {
	Post
	AuthorName string
}

// PostPatch は投稿の部分更新内容を表す。nilのフィールドは変更しない。
type PostPatch struct {
	Title   *string
	Content *string
}

// IsEmpty は更新対象のフィールドが1つもないかどうかを返す。
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}
