package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
)

// memStore は結合テスト用のインメモリストア。
// 4つのリポジトリ実装が同じデータを共有する。
type memStore struct {
	mu       sync.Mutex
	users    []model.User
	sessions map[string]model.Session
	posts    []model.Post
	comments []model.Comment
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]model.Session)}
}

func (s *memStore) userName(id string) string {
	for _, u := range s.users {
		if u.ID == id {
			return u.Name
		}
	}
	return ""
}

// postCount はテストからの検証用に投稿件数を返す。
func (s *memStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// --- UserRepository ---

type memUserRepo struct{ s *memStore }

var _ repository.UserRepository = memUserRepo{}

func (r memUserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]*model.User, 0, len(r.s.users))
	for i := range r.s.users {
		u := r.s.users[i]
		users = append(users, &u)
	}
	return users, nil
}

func (r memUserRepo) find(match func(model.User) bool) *model.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (r memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id }), nil
}

func (r memUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Name == name }), nil
}

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email }), nil
}

func (r memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Name == user.Name || u.Email == user.Email {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}
	r.s.users = append(r.s.users, *user)
	return nil
}

// --- SessionRepository ---

type memSessionRepo struct{ s *memStore }

var _ repository.SessionRepository = memSessionRepo{}

func (r memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok || session.IsExpired(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

func (r memSessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r memSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r memSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, session := range r.s.sessions {
		if session.IsExpired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- PostRepository ---

type memPostRepo struct{ s *memStore }

var _ repository.PostRepository = memPostRepo{}

func (r memPostRepo) withAuthor(p model.Post) model.PostWithAuthor {
	return model.PostWithAuthor{Post: p, AuthorName: r.s.userName(p.UserID)}
}

func (r memPostRepo) ListWithAuthor(ctx context.Context) ([]model.PostWithAuthor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posts := make([]model.PostWithAuthor, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, r.withAuthor(p))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r memPostRepo) ListLatestWithAuthor(ctx context.Context, limit int) ([]model.PostWithAuthor, error) {
	posts, _ := r.ListWithAuthor(ctx)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r memPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r memPostRepo) FindWithAuthorByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.ID == id {
			found := r.withAuthor(p)
			return &found, nil
		}
	}
	return nil, nil
}

func (r memPostRepo) Create(ctx context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.posts = append(r.s.posts, *post)
	return nil
}

func (r memPostRepo) Update(ctx context.Context, id string, patch model.PostPatch, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.posts {
		if r.s.posts[i].ID != id {
			continue
		}
		if patch.Title != nil {
			r.s.posts[i].Title = *patch.Title
		}
		if patch.Content != nil {
			r.s.posts[i].Content = *patch.Content
		}
		r.s.posts[i].UpdatedAt = updatedAt
		return true, nil
	}
	return false, nil
}

func (r memPostRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, p := range r.s.posts {
		if p.ID == id && p.UserID == userID {
			r.s.posts = append(r.s.posts[:i], r.s.posts[i+1:]...)
			// ON DELETE CASCADE相当
			kept := r.s.comments[:0]
			for _, c := range r.s.comments {
				if c.PostID != id {
					kept = append(kept, c)
				}
			}
			r.s.comments = kept
			return true, nil
		}
	}
	return false, nil
}

// --- CommentRepository ---

type memCommentRepo struct{ s *memStore }

var _ repository.CommentRepository = memCommentRepo{}

func (r memCommentRepo) list(postID string, include func(model.Comment) bool) []model.CommentWithAuthor {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := make([]model.CommentWithAuthor, 0)
	for _, c := range r.s.comments {
		if c.PostID == postID && include(c) {
			comments = append(comments, model.CommentWithAuthor{Comment: c, AuthorName: r.s.userName(c.UserID)})
		}
	}
	return comments
}

func (r memCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	return r.list(postID, func(model.Comment) bool { return true }), nil
}

func (r memCommentRepo) ListByPostExcludingUser(ctx context.Context, postID, userID string) ([]model.CommentWithAuthor, error) {
	return r.list(postID, func(c model.Comment) bool { return c.UserID != userID }), nil
}

func (r memCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.comments {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r memCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r memCommentRepo) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.comments {
		if r.s.comments[i].ID == id {
			r.s.comments[i].Text = text
			r.s.comments[i].UpdatedAt = updatedAt
			return true, nil
		}
	}
	return false, nil
}

func (r memCommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, c := range r.s.comments {
		if c.ID == id {
			r.s.comments = append(r.s.comments[:i], r.s.comments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
