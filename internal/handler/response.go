package handler

import (
	"time"

	"github.com/hitoshi/blogapi/internal/model"
)

// userResponse はユーザーのAPIレスポンス。
// パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

// authorResponse は投稿者・コメント投稿者として公開する情報。名前のみ。
type authorResponse struct {
	Name string `json:"name"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	UserID    string         `json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	User      authorResponse `json:"user"`
}

// commentResponse はコメントのAPIレスポンス。
// 投稿者名を結合しない更新レスポンスではuserを省略する。
type commentResponse struct {
	ID        string          `json:"id"`
	Comment   string          `json:"comment"`
	UserID    string          `json:"user_id"`
	PostID    string          `json:"post_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	User      *authorResponse `json:"user,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	return results
}

func toPostResponse(p *model.PostWithAuthor) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		User:      authorResponse{Name: p.AuthorName},
	}
}

func toPostResponses(posts []model.PostWithAuthor) []postResponse {
	results := make([]postResponse, len(posts))
	for i := range posts {
		results[i] = toPostResponse(&posts[i])
	}
	return results
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Comment:   c.Text,
		UserID:    c.UserID,
		PostID:    c.PostID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentResponses(comments []model.CommentWithAuthor) []commentResponse {
	results := make([]commentResponse, len(comments))
	for i := range comments {
		resp := toCommentResponse(&comments[i].Comment)
		resp.User = &authorResponse{Name: comments[i].AuthorName}
		results[i] = resp
	}
	return results
}
