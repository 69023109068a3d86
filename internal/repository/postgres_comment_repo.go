package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/blogapi/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const commentWithAuthorQuery = `SELECT c.id, c.comment, c.user_id, c.post_id, c.created_at, c.updated_at, u.name
	 FROM comments c
	 JOIN users u ON u.id = c.user_id`

// ListByPost は投稿の全コメントをコメント投稿者名付きで古い順に取得する。
func (r *PostgresCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		commentWithAuthorQuery+` WHERE c.post_id = $1 ORDER BY c.created_at ASC, c.id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return scanCommentsWithAuthor(rows)
}

// ListByPostExcludingUser は投稿のコメントのうち、指定ユーザー以外のものを取得する。
func (r *PostgresCommentRepo) ListByPostExcludingUser(ctx context.Context, postID, userID string) ([]model.CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		commentWithAuthorQuery+` WHERE c.post_id = $1 AND c.user_id <> $2 ORDER BY c.created_at ASC, c.id`,
		postID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return scanCommentsWithAuthor(rows)
}

func scanCommentsWithAuthor(rows *sql.Rows) ([]model.CommentWithAuthor, error) {
	defer rows.Close()

	comments := []model.CommentWithAuthor{}
	for rows.Next() {
		var c model.CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.PostID, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, comment, user_id, post_id, created_at, updated_at FROM comments WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Text, &c.UserID, &c.PostID, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	return c, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, comment, user_id, post_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Text, c.UserID, c.PostID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateText はコメント本文を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresCommentRepo) UpdateText(ctx context.Context, id, text string, updatedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET comment = $2, updated_at = $3 WHERE id = $1`,
		id, text, updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return affected(result)
}

// Delete は指定IDのコメントを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresCommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
