package article

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM articles WHERE content_hash = $1 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Save(ctx context.Context, art *Article) error {
	query := `INSERT INTO articles (url, title, content, title_en, content_en, language, published_at, content_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::timestamptz, $8, $9) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		art.URL, art.Title, art.Content, art.TitleEN, art.ContentEN,
		art.Language, art.PublishedAt, art.ContentHash, art.Status,
	).Scan(&art.ID)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Article, error) {
	a := &Article{}
	var publishedAt sql.NullString
	query := `SELECT id, url, title, content, title_en, content_en, language,
		COALESCE(published_at::text, ''), status, chunk_count, COALESCE(error, '')
		FROM articles WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.URL, &a.Title, &a.Content, &a.TitleEN, &a.ContentEN,
		&a.Language, &publishedAt, &a.Status, &a.ChunkCount, &a.Error,
	)
	if err != nil {
		return nil, err
	}
	a.PublishedAt = publishedAt.String
	return a, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Article, error) {
	query := `SELECT id, url, title, language, COALESCE(published_at::text, ''), status, chunk_count, COALESCE(error, '')
		FROM articles WHERE deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		var publishedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Language, &publishedAt, &a.Status, &a.ChunkCount, &a.Error); err != nil {
			return nil, err
		}
		a.PublishedAt = publishedAt.String
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE articles SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) SetResult(ctx context.Context, id, status string, chunkCount int, errMsg string) error {
	query := `UPDATE articles SET status = $1, chunk_count = $2, error = $3, updated_at = NOW() WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, chunkCount, errMsg, id)
	return err
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE articles SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM articles WHERE deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
