package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/blogapi/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postWithAuthorQuery = `SELECT p.id, p.title, p.content, p.user_id, p.created_at, p.updated_at, u.name
	 FROM posts p
	 JOIN users u ON u.id = p.user_id`

// ListWithAuthor は全投稿を投稿者名付きで新しい順に取得する。
func (r *PostgresPostRepo) ListWithAuthor(ctx context.Context) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		postWithAuthorQuery+` ORDER BY p.created_at DESC, p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return scanPostsWithAuthor(rows)
}

// ListLatestWithAuthor は最新limit件の投稿を投稿者名付きで取得する。
func (r *PostgresPostRepo) ListLatestWithAuthor(ctx context.Context, limit int) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		postWithAuthorQuery+` ORDER BY p.created_at DESC, p.id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("最新投稿の取得に失敗しました: %w", err)
	}
	return scanPostsWithAuthor(rows)
}

func scanPostsWithAuthor(rows *sql.Rows) ([]model.PostWithAuthor, error) {
	defer rows.Close()

	posts := []model.PostWithAuthor{}
	for rows.Next() {
		var p model.PostWithAuthor
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName); err != nil {
			return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, user_id, created_at, updated_at FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt, &post.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// FindWithAuthorByID は指定IDの投稿を投稿者名付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindWithAuthorByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	p := &model.PostWithAuthor{}
	err := r.db.QueryRowContext(ctx,
		postWithAuthorQuery+` WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.Title, post.Content, post.UserID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// Update はpatchで指定されたフィールドのみを更新する。
// nilのフィールドはCOALESCEにより既存の値を維持する。
func (r *PostgresPostRepo) Update(ctx context.Context, id string, patch model.PostPatch, updatedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET title = COALESCE($2, title), content = COALESCE($3, content), updated_at = $4
		 WHERE id = $1`,
		id, patch.Title, patch.Content, updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	return affected(result)
}

// DeleteByIDAndUser は指定ユーザーが所有する投稿を削除する。
// ID誤りと所有者不一致は区別せず、どちらもfalseを返す。
func (r *PostgresPostRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// affected は1行以上が更新・削除されたかどうかを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
