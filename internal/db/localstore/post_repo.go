package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Readout/internal/core/mediators"
	"Readout/internal/core/posts"
)

const postColumns = `
	id, title, author, subreddit, created_utc, score, num_comments,
	thumbnail, permalink, url, preview_url, preview_width, preview_height,
	sort_key, saved, likes, self_text`

// Search reads substitute the mapping's sort key for the post's own.
const searchPostColumns = `
	p.id, p.title, p.author, p.subreddit, p.created_utc, p.score, p.num_comments,
	p.thumbnail, p.permalink, p.url, p.preview_url, p.preview_width, p.preview_height,
	r.sort_key, p.saved, p.likes, p.self_text`

const insertPostQuery = `
	INSERT INTO posts (` + postColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		author = excluded.author,
		subreddit = excluded.subreddit,
		created_utc = excluded.created_utc,
		score = excluded.score,
		num_comments = excluded.num_comments,
		thumbnail = excluded.thumbnail,
		permalink = excluded.permalink,
		url = excluded.url,
		preview_url = excluded.preview_url,
		preview_width = excluded.preview_width,
		preview_height = excluded.preview_height,
		saved = excluded.saved,
		likes = excluded.likes,
		self_text = excluded.self_text`

// Feed pages own the sort key of every post they carry.
const upsertFeedPostQuery = insertPostQuery + `,
		sort_key = excluded.sort_key`

// Search pages never move a post that is already cached.
const upsertSearchPostQuery = insertPostQuery

type postRepo struct {
	store *Store
}

// NewPostRepository creates a post repository over the local store
func NewPostRepository(store *Store) posts.Repository {
	return &postRepo{store: store}
}

func (r *postRepo) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	return getPost(ctx, r.store.db, id)
}

// ListFeedPosts returns posts in feed order. Posts first seen through search
// carry keys at or above the search offset and are excluded.
func (r *postRepo) ListFeedPosts(ctx context.Context, after int64, limit int) ([]*posts.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE sort_key > $1 AND sort_key < $2
		ORDER BY sort_key ASC
		LIMIT $3`

	rows, err := r.store.db.QueryContext(ctx, query, after, mediators.SearchSortKeyOffset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed posts: %w", err)
	}
	return collectPosts(rows)
}

func (r *postRepo) ListSearchPosts(ctx context.Context, q string, after int64, limit int) ([]*posts.Post, error) {
	query := `SELECT ` + searchPostColumns + `
		FROM search_results r
		JOIN posts p ON p.id = r.post_id
		WHERE r.query = $1 AND r.sort_key > $2
		ORDER BY r.sort_key ASC
		LIMIT $3`

	rows, err := r.store.db.QueryContext(ctx, query, q, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search posts: %w", err)
	}
	return collectPosts(rows)
}

func (r *postRepo) UpdatePost(ctx context.Context, post *posts.Post) error {
	if err := updatePost(ctx, r.store.db, post); err != nil {
		return err
	}
	r.store.tracker.Notify(posts.Table)
	return nil
}

func getPost(ctx context.Context, q queryer, id string) (*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return post, nil
}

func updatePost(ctx context.Context, q queryer, p *posts.Post) error {
	query := `
		UPDATE posts SET
			title = $2, author = $3, subreddit = $4, created_utc = $5,
			score = $6, num_comments = $7, thumbnail = $8, permalink = $9,
			url = $10, preview_url = $11, preview_width = $12, preview_height = $13,
			saved = $14, likes = $15, self_text = $16
		WHERE id = $1`

	result, err := q.ExecContext(ctx, query,
		p.ID, p.Title, p.Author, p.Subreddit, p.CreatedUTC,
		p.Score, p.NumComments, p.Thumbnail, p.Permalink,
		p.URL, p.PreviewURL, p.PreviewWidth, p.PreviewHeight,
		p.Saved, p.Likes, p.SelfText,
	)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", p.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return posts.ErrPostNotFound
	}
	return nil
}

func upsertPosts(ctx context.Context, q queryer, query string, rows []*posts.Post) error {
	for _, p := range rows {
		_, err := q.ExecContext(ctx, query,
			p.ID, p.Title, p.Author, p.Subreddit, p.CreatedUTC, p.Score, p.NumComments,
			p.Thumbnail, p.Permalink, p.URL, p.PreviewURL, p.PreviewWidth, p.PreviewHeight,
			p.SortKey, p.Saved, p.Likes, p.SelfText,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert post %s: %w", p.ID, err)
		}
	}
	return nil
}

func scanPost(s scanner) (*posts.Post, error) {
	var (
		p                           posts.Post
		author, previewURL, selfTxt sql.NullString
		previewWidth, previewHeight sql.NullInt64
		likes                       sql.NullBool
	)
	err := s.Scan(
		&p.ID, &p.Title, &author, &p.Subreddit, &p.CreatedUTC, &p.Score, &p.NumComments,
		&p.Thumbnail, &p.Permalink, &p.URL, &previewURL, &previewWidth, &previewHeight,
		&p.SortKey, &p.Saved, &likes, &selfTxt,
	)
	if err != nil {
		return nil, err
	}
	p.Author = nullStringPtr(author)
	p.PreviewURL = nullStringPtr(previewURL)
	p.PreviewWidth = nullIntPtr(previewWidth)
	p.PreviewHeight = nullIntPtr(previewHeight)
	p.Likes = nullBoolPtr(likes)
	p.SelfText = nullStringPtr(selfTxt)
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]*posts.Post, error) {
	defer func() { _ = rows.Close() }()

	var out []*posts.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return out, nil
}
