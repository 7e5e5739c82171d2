package store

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/apperror"
	"quill/internal/database"
	"quill/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const postColumns = `id, author_id, title, body, created_at, updated_at`

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePost(p *model.Post) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	return nil
}

func CreatePost(ctx context.Context, db database.DB, p *model.Post) (*model.Post, error) {
	if err := validatePost(p); err != nil {
		return nil, fmt.Errorf("CreatePost: %w", err)
	}
	created, err := scanPost(db.QueryRow(ctx,
		`INSERT INTO posts (id, author_id, title, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+postColumns,
		newID(), p.AuthorID, p.Title, p.Body,
	))
	if err != nil {
		return nil, wrap("CreatePost", err)
	}
	return created, nil
}

func GetPost(ctx context.Context, db database.DB, id uuid.UUID) (*model.Post, error) {
	p, err := scanPost(db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrap("GetPost", err)
	}
	return p, nil
}

func ListPosts(ctx context.Context, db database.DB, limit, offset int) ([]model.Post, error) {
	rows, err := db.Query(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("ListPosts", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrap("ListPosts", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListPosts", err)
	}
	return posts, nil
}

func UpdatePost(ctx context.Context, db database.DB, p *model.Post) (*model.Post, error) {
	if err := validatePost(p); err != nil {
		return nil, fmt.Errorf("UpdatePost: %w", err)
	}
	updated, err := scanPost(db.QueryRow(ctx,
		`UPDATE posts SET title = $2, body = $3, updated_at = GREATEST(now(), updated_at)
		 WHERE id = $1
		 RETURNING `+postColumns,
		p.ID, p.Title, p.Body,
	))
	if err != nil {
		return nil, wrap("UpdatePost", err)
	}
	return updated, nil
}

func DeletePost(ctx context.Context, db database.DB, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return wrap("DeletePost", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeletePost: %w", apperror.NotFound("post", id.String()))
	}
	return nil
}
