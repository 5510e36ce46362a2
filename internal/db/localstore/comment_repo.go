package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Readout/internal/core/comments"
)

const commentColumns = `
	id, post_id, parent_id, author, body, body_html, score,
	depth, reply_count, sort_key, created_utc, saved, likes`

type commentRepo struct {
	store *Store
}

// NewCommentRepository creates a comment repository over the local store
func NewCommentRepository(store *Store) comments.Repository {
	return &commentRepo{store: store}
}

func (r *commentRepo) GetComment(ctx context.Context, id string) (*comments.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(r.store.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comments.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment %s: %w", id, err)
	}
	return c, nil
}

func (r *commentRepo) ListComments(ctx context.Context, postID string, after int64, limit int) ([]*comments.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1 AND sort_key > $2
		ORDER BY sort_key ASC
		LIMIT $3`

	rows, err := r.store.db.QueryContext(ctx, query, postID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return collectComments(rows)
}

func (r *commentRepo) ListReplies(ctx context.Context, parentID string) ([]*comments.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments
		WHERE parent_id = $1
		ORDER BY sort_key ASC`

	rows, err := r.store.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return collectComments(rows)
}

func upsertComments(ctx context.Context, q queryer, rows []*comments.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			post_id = excluded.post_id,
			parent_id = excluded.parent_id,
			author = excluded.author,
			body = excluded.body,
			body_html = excluded.body_html,
			score = excluded.score,
			depth = excluded.depth,
			reply_count = excluded.reply_count,
			sort_key = excluded.sort_key,
			created_utc = excluded.created_utc,
			saved = excluded.saved,
			likes = excluded.likes`

	for _, c := range rows {
		_, err := q.ExecContext(ctx, query,
			c.ID, c.PostID, c.ParentID, c.Author, c.Body, c.BodyHTML, c.Score,
			c.Depth, c.ReplyCount, c.SortKey, c.CreatedUTC, c.Saved, c.Likes,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert comment %s: %w", c.ID, err)
		}
	}
	return nil
}

func scanComment(s scanner) (*comments.Comment, error) {
	var (
		c                comments.Comment
		parentID, author sql.NullString
		likes            sql.NullBool
	)
	err := s.Scan(
		&c.ID, &c.PostID, &parentID, &author, &c.Body, &c.BodyHTML, &c.Score,
		&c.Depth, &c.ReplyCount, &c.SortKey, &c.CreatedUTC, &c.Saved, &likes,
	)
	if err != nil {
		return nil, err
	}
	c.ParentID = nullStringPtr(parentID)
	c.Author = nullStringPtr(author)
	c.Likes = nullBoolPtr(likes)
	return &c, nil
}

func collectComments(rows *sql.Rows) ([]*comments.Comment, error) {
	defer func() { _ = rows.Close() }()

	var out []*comments.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return out, nil
}
