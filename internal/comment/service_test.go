package comment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/security"
)

// --- モック定義 ---

type mockCommentRepo struct {
	listByPostFn    func(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)
	listExcludingFn func(ctx context.Context, postID, userID string) ([]model.CommentWithAuthor, error)
	findByIDFn      func(ctx context.Context, id string) (*model.Comment, error)
	createFn        func(ctx context.Context, c *model.Comment) error
	updateTextFn    func(ctx context.Context, id, text string, updatedAt time.Time) (bool, error)
	deleteFn        func(ctx context.Context, id string) (bool, error)
}

func (m *mockCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	return m.listByPostFn(ctx, postID)
}
func (m *mockCommentRepo) ListByPostExcludingUser(ctx context.Context, postID, userID string) ([]model.CommentWithAuthor, error) {
	return m.listExcludingFn(ctx, postID, userID)
}
func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}
func (m *mockCommentRepo) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	return m.updateTextFn(ctx, id, text, updatedAt)
}
func (m *mockCommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

type mockPostFinder struct {
	posts map[string]*model.Post
	err   error
}

func (m *mockPostFinder) FindByID(_ context.Context, id string) (*model.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.posts[id], nil
}

const (
	postID    = "22222222-2222-4222-8222-222222222222"
	commentID = "33333333-3333-4333-8333-333333333333"
	missingID = "99999999-9999-4999-8999-999999999999"
)

var (
	alice = model.Actor{UserID: "u-alice", SessionID: "s-alice"}
	bob   = model.Actor{UserID: "u-bob", SessionID: "s-bob"}
)

func existingPost() *mockPostFinder {
	return &mockPostFinder{posts: map[string]*model.Post{postID: {ID: postID, UserID: alice.UserID}}}
}

func aliceComment() *model.Comment {
	return &model.Comment{ID: commentID, Text: "Nice", UserID: alice.UserID, PostID: postID}
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- ListByPost ---

// TestService_ListByPost_DistinguishesMissingPostFromNoComments は投稿が存在しない場合と
// コメントが0件の場合を区別して返すことを検証する。
func TestService_ListByPost_DistinguishesMissingPostFromNoComments(t *testing.T) {
	repo := &mockCommentRepo{
		listByPostFn: func(_ context.Context, _ string) ([]model.CommentWithAuthor, error) {
			return []model.CommentWithAuthor{}, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	comments, err := svc.ListByPost(context.Background(), postID)
	if err != nil {
		t.Fatalf("expected no error for existing post, got %v", err)
	}
	if comments == nil || len(comments) != 0 {
		t.Errorf("comments = %v, want empty non-nil slice", comments)
	}

	_, err = svc.ListByPost(context.Background(), missingID)
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

func TestService_ListByPost_StoreError(t *testing.T) {
	cause := errors.New("db down")
	svc := NewService(&mockCommentRepo{}, &mockPostFinder{err: cause}, security.NewContentSanitizer())

	_, err := svc.ListByPost(context.Background(), postID)
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

// --- Create ---

func TestService_Create_ReturnsOthersComments(t *testing.T) {
	var stored *model.Comment
	var excluded string
	repo := &mockCommentRepo{
		createFn: func(_ context.Context, c *model.Comment) error {
			stored = c
			return nil
		},
		listExcludingFn: func(_ context.Context, _, userID string) ([]model.CommentWithAuthor, error) {
			excluded = userID
			return []model.CommentWithAuthor{
				{Comment: model.Comment{ID: "c-other", Text: "Hi", UserID: alice.UserID, PostID: postID}, AuthorName: "alice"},
			}, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	others, err := svc.Create(context.Background(), bob, CreateInput{PostID: postID, Text: " Great <b>post</b> "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.UserID != bob.UserID {
		t.Errorf("stored.UserID = %q, want %q", stored.UserID, bob.UserID)
	}
	if stored.Text != "Great post" {
		t.Errorf("stored.Text = %q, want %q", stored.Text, "Great post")
	}
	if excluded != bob.UserID {
		t.Errorf("excluded user = %q, want %q", excluded, bob.UserID)
	}
	for _, c := range others {
		if c.ID == stored.ID {
			t.Error("response must not include the caller's new comment")
		}
	}
	if len(others) != 1 || others[0].AuthorName != "alice" {
		t.Errorf("unexpected others: %+v", others)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, existingPost(), security.NewContentSanitizer())

	_, err := svc.Create(context.Background(), bob, CreateInput{PostID: postID, Text: ""})
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)

	_, err = svc.Create(context.Background(), bob, CreateInput{Text: "Nice"})
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
}

func TestService_Create_PostMissing_NotFound(t *testing.T) {
	repo := &mockCommentRepo{
		createFn: func(_ context.Context, _ *model.Comment) error {
			t.Fatal("Create should not be called for missing post")
			return nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	_, err := svc.Create(context.Background(), bob, CreateInput{PostID: missingID, Text: "Nice"})
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

// --- Update ---

func TestService_Update_Author_Success(t *testing.T) {
	current := aliceComment()
	repo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.Comment, error) {
			c := *current
			return &c, nil
		},
		updateTextFn: func(_ context.Context, _, text string, _ time.Time) (bool, error) {
			current.Text = text
			return true, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	got, err := svc.Update(context.Background(), alice, commentID, "Edited")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Text != "Edited" {
		t.Errorf("Text = %q, want %q", got.Text, "Edited")
	}
}

// TestService_Update_NonAuthor_Forbidden は投稿者以外の更新が403となり、行が変更されないことを検証する。
func TestService_Update_NonAuthor_Forbidden(t *testing.T) {
	repo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.Comment, error) {
			return aliceComment(), nil
		},
		updateTextFn: func(_ context.Context, _, _ string, _ time.Time) (bool, error) {
			t.Fatal("UpdateText should not be called for non-author")
			return false, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	_, err := svc.Update(context.Background(), bob, commentID, "hijack")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestService_Update_MissingAndEmpty(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, existingPost(), security.NewContentSanitizer())

	_, err := svc.Update(context.Background(), alice, missingID, "x")
	assertAPIErrorCode(t, err, model.ErrCodeCommentNotFound)

	_, err = svc.Update(context.Background(), alice, commentID, "")
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
}

// --- Delete ---

func TestService_Delete_Author_Success(t *testing.T) {
	deleted := false
	repo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.Comment, error) { return aliceComment(), nil },
		deleteFn: func(_ context.Context, _ string) (bool, error) {
			deleted = true
			return true, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	if err := svc.Delete(context.Background(), alice, commentID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !deleted {
		t.Error("comment should be deleted")
	}
}

func TestService_Delete_NonAuthor_Forbidden(t *testing.T) {
	repo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.Comment, error) { return aliceComment(), nil },
		deleteFn: func(_ context.Context, _ string) (bool, error) {
			t.Fatal("Delete should not be called for non-author")
			return false, nil
		},
	}
	svc := NewService(repo, existingPost(), security.NewContentSanitizer())

	err := svc.Delete(context.Background(), bob, commentID)
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestService_Delete_Missing_NotFound(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, existingPost(), security.NewContentSanitizer())

	err := svc.Delete(context.Background(), alice, "not-a-uuid")
	assertAPIErrorCode(t, err, model.ErrCodeCommentNotFound)
}
