package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
	"github.com/algenord/portfolio-backend/internal/storage"
)

// ProjectStore is the persistence surface the workflow needs for parents.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Project, error)
	Update(ctx context.Context, id int64, u domain.ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ImageStore groups the image writes of one workflow invocation under a
// transaction and serves the single-image operations.
type ImageStore interface {
	Begin(ctx context.Context) (ImageTx, error)
	GetImage(ctx context.Context, projectID, imageID int64) (*domain.Image, error)
	UpdateImage(ctx context.Context, projectID, imageID int64, u domain.ImageUpdate) (*domain.Image, error)
	DeleteImage(ctx context.Context, projectID, imageID int64) (bool, error)
}

type ImageTx interface {
	Insert(ctx context.Context, img *domain.Image) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}

// Upload is one file of a creation request, paired by index with an
// ImageMeta entry.
type Upload struct {
	Filename string
	Content  io.Reader
}

type ImageMeta struct {
	ImageType  domain.ImageType
	IsFeatured bool
}

// ProjectService orchestrates the multi-resource creation workflow: parent
// record, then per-image blob store + row insert, with compensating blob
// deletion on partial failure.
type ProjectService struct {
	store  ProjectStore
	images ImageStore
	blobs  storage.BlobStore
}

func NewProjectService(store ProjectStore, images ImageStore, blobs storage.BlobStore) *ProjectService {
	return &ProjectService{
		store:  store,
		images: images,
		blobs:  blobs,
	}
}

// CreateProject runs the full workflow: validate counts and composition,
// persist the parent, then attach the images. A failure after the parent
// insert leaves the parent behind with zero images; the caller may retry by
// adding images to it.
func (s *ProjectService) CreateProject(ctx context.Context, p *domain.Project, uploads []Upload, metas []ImageMeta) (*domain.Project, error) {
	if err := validateUploads(uploads, metas); err != nil {
		return nil, err
	}
	if err := validateComposition(metas); err != nil {
		return nil, err
	}
	if !p.ServiceCategory.Valid() {
		return nil, domain.Validationf("unknown service category %q", p.ServiceCategory)
	}
	if !p.CustomerType.Valid() {
		return nil, domain.Validationf("unknown customer type %q", p.CustomerType)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}

	imgs, err := s.storeAndAttach(ctx, p.ID, uploads, metas)
	if err != nil {
		return nil, err
	}
	p.Images = imgs
	return p, nil
}

// AddImages is the append variant: the parent must already exist, and the
// per-call composition check is skipped since appending cannot invalidate it.
func (s *ProjectService) AddImages(ctx context.Context, projectID int64, uploads []Upload, metas []ImageMeta) (*domain.Project, error) {
	if err := validateUploads(uploads, metas); err != nil {
		return nil, err
	}

	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	imgs, err := s.storeAndAttach(ctx, p.ID, uploads, metas)
	if err != nil {
		return nil, err
	}
	p.Images = append(p.Images, imgs...)
	return p, nil
}

// storeAndAttach is the per-image loop. Forward steps push an undo action
// (blob deletion) as they succeed; on failure the stack runs in reverse, the
// row transaction rolls back, and the original cause is surfaced. Undo
// failures are logged, never escalated.
func (s *ProjectService) storeAndAttach(ctx context.Context, projectID int64, uploads []Upload, metas []ImageMeta) ([]domain.Image, error) {
	tx, err := s.images.Begin(ctx)
	if err != nil {
		return nil, err
	}

	var undo []func()
	fail := func(cause error) ([]domain.Image, error) {
		tx.Rollback(ctx)
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, cause
	}

	saved := make([]domain.Image, 0, len(uploads))
	for i := range uploads {
		location, err := s.blobs.Store(uploads[i].Filename, uploads[i].Content)
		if err != nil {
			return fail(wrapStoreErr(err))
		}
		undo = append(undo, func() {
			if derr := s.blobs.Delete(location); derr != nil {
				log.Printf("[projects] compensating blob delete failed for %s: %v", location, derr)
			}
		})

		img := domain.Image{
			ProjectID:  projectID,
			URL:        location,
			ImageType:  metas[i].ImageType,
			IsFeatured: metas[i].IsFeatured,
		}
		if err := tx.Insert(ctx, &img); err != nil {
			return fail(fmt.Errorf("persist image: %w", err))
		}
		saved = append(saved, img)
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(fmt.Errorf("commit images: %w", err))
	}
	return saved, nil
}

// wrapStoreErr keeps caller-input failures (empty file, path escape) as-is
// so they stay 4xx, and tags real I/O failures as StorageError.
func wrapStoreErr(err error) error {
	var pathErr *storage.PathEscapeError
	if errors.Is(err, storage.ErrEmptyFile) || errors.As(err, &pathErr) {
		return err
	}
	return &domain.StorageError{Err: err}
}

func validateUploads(uploads []Upload, metas []ImageMeta) error {
	if len(uploads) == 0 {
		return domain.Validationf("at least one image must be provided")
	}
	if len(metas) == 0 {
		return domain.Validationf("image metadata must be provided")
	}
	if len(uploads) != len(metas) {
		return domain.Validationf("mismatch between images (%d) and metadata (%d) count", len(uploads), len(metas))
	}
	for i := range metas {
		if !metas[i].ImageType.Valid() {
			return domain.Validationf("unknown image type %q", metas[i].ImageType)
		}
	}
	return nil
}

func validateComposition(metas []ImageMeta) error {
	var before, after bool
	for i := range metas {
		switch metas[i].ImageType {
		case domain.ImageBefore:
			before = true
		case domain.ImageAfter:
			after = true
		}
	}
	if !before {
		return domain.Validationf("at least one BEFORE image must be provided")
	}
	if !after {
		return domain.Validationf("at least one AFTER image must be provided")
	}
	return nil
}
