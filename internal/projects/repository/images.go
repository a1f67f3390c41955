package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
	"github.com/algenord/portfolio-backend/internal/projects/service"
)

// Begin opens the transaction image inserts of one workflow invocation share,
// so a mid-loop failure rolls their rows back together.
func (r *ProjectRepository) Begin(ctx context.Context) (service.ImageTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin image tx: %w", err)
	}
	return &imageTx{tx: tx}, nil
}

type imageTx struct {
	tx pgx.Tx
}

func (t *imageTx) Insert(ctx context.Context, img *domain.Image) error {
	const q = `
insert into images (project_id, url, image_type, is_featured)
values ($1, $2, $3, $4)
returning id;
`
	if err := t.tx.QueryRow(ctx, q, img.ProjectID, img.URL, img.ImageType, img.IsFeatured).Scan(&img.ID); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (t *imageTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *imageTx) Rollback(ctx context.Context) {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Printf("[projects] image tx rollback failed: %v", err)
	}
}

func (r *ProjectRepository) GetImage(ctx context.Context, projectID, imageID int64) (*domain.Image, error) {
	const q = `
select id, project_id, url, image_type, is_featured
from images
where id = $1 and project_id = $2;
`
	var img domain.Image
	err := r.db.QueryRow(ctx, q, imageID, projectID).
		Scan(&img.ID, &img.ProjectID, &img.URL, &img.ImageType, &img.IsFeatured)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ProjectRepository) UpdateImage(ctx context.Context, projectID, imageID int64, u domain.ImageUpdate) (*domain.Image, error) {
	const q = `
update images
set
  image_type = coalesce($3, image_type),
  is_featured = coalesce($4, is_featured),
  url = coalesce($5, url)
where id = $1 and project_id = $2
returning id, project_id, url, image_type, is_featured;
`
	var img domain.Image
	err := r.db.QueryRow(ctx, q, imageID, projectID, u.ImageType, u.IsFeatured, u.URL).
		Scan(&img.ID, &img.ProjectID, &img.URL, &img.ImageType, &img.IsFeatured)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ProjectRepository) DeleteImage(ctx context.Context, projectID, imageID int64) (bool, error) {
	const q = `delete from images where id = $1 and project_id = $2;`
	ct, err := r.db.Exec(ctx, q, imageID, projectID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// AllImageURLs returns every stored image location. Used by the janitor to
// tell orphaned blobs from referenced ones.
func (r *ProjectRepository) AllImageURLs(ctx context.Context) ([]string, error) {
	const q = `select url from images;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
