package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts the parent row and fills ID and CreatedAt. Deliberately
// committed on its own: a later image failure leaves the row behind as a
// retryable partial state.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	const q = `
insert into projects (title, description, service_category, customer_type, execution_date)
values ($1, $2, $3, $4, $5)
returning id, created_at;
`
	err := r.db.QueryRow(ctx, q, p.Title, p.Description, p.ServiceCategory, p.CustomerType, p.ExecutionDate).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `
select id, title, description, service_category, customer_type, execution_date, created_at
from projects
where id = $1;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.ServiceCategory, &p.CustomerType, &p.ExecutionDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	imgs, err := r.imagesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = imgs
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Project, error) {
	order := "desc"
	if f.Sort == "asc" {
		order = "asc"
	}

	q := `
select id, title, description, service_category, customer_type, execution_date, created_at
from projects
where ($1 = '' or service_category = $1)
  and ($2 = '' or customer_type = $2)
order by execution_date ` + order + `, id ` + order + `;`

	rows, err := r.db.Query(ctx, q, string(f.ServiceCategory), string(f.CustomerType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ServiceCategory, &p.CustomerType, &p.ExecutionDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		imgs, err := r.imagesFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Images = imgs
	}
	return out, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id int64, u domain.ProjectUpdate) (*domain.Project, error) {
	const q = `
update projects
set
  title = coalesce($2, title),
  description = coalesce($3, description),
  service_category = coalesce($4, service_category),
  customer_type = coalesce($5, customer_type),
  execution_date = coalesce($6, execution_date)
where id = $1
returning id, title, description, service_category, customer_type, execution_date, created_at;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id, u.Title, u.Description, u.ServiceCategory, u.CustomerType, u.ExecutionDate).
		Scan(&p.ID, &p.Title, &p.Description, &p.ServiceCategory, &p.CustomerType, &p.ExecutionDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	imgs, err := r.imagesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = imgs
	return &p, nil
}

// Delete removes the project; images go with it via the cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `delete from projects where id = $1;`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *ProjectRepository) imagesFor(ctx context.Context, projectID int64) ([]domain.Image, error) {
	const q = `
select id, project_id, url, image_type, is_featured
from images
where project_id = $1
order by id;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Image, 0, 4)
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.URL, &img.ImageType, &img.IsFeatured); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
