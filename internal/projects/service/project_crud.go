package service

import (
	"context"
	"log"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
)

func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, f domain.ListFilter) ([]domain.Project, error) {
	if f.ServiceCategory != "" && !f.ServiceCategory.Valid() {
		return nil, domain.Validationf("unknown service category %q", f.ServiceCategory)
	}
	if f.CustomerType != "" && !f.CustomerType.Valid() {
		return nil, domain.Validationf("unknown customer type %q", f.CustomerType)
	}
	return s.store.List(ctx, f)
}

func (s *ProjectService) Update(ctx context.Context, id int64, u domain.ProjectUpdate) (*domain.Project, error) {
	if u.ServiceCategory != nil && !u.ServiceCategory.Valid() {
		return nil, domain.Validationf("unknown service category %q", *u.ServiceCategory)
	}
	if u.CustomerType != nil && !u.CustomerType.Valid() {
		return nil, domain.Validationf("unknown customer type %q", *u.CustomerType)
	}
	return s.store.Update(ctx, id, u)
}

// Delete removes the project and its images, then deletes the blobs
// best-effort. A blob that survives is picked up by the janitor sweep.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrProjectNotFound
	}

	for i := range p.Images {
		if derr := s.blobs.Delete(p.Images[i].URL); derr != nil {
			log.Printf("[projects] blob delete failed for %s: %v", p.Images[i].URL, derr)
		}
	}
	return nil
}

// UpdateImageMetadata changes type/featured of one image. A type change is
// re-checked against the project-level BEFORE/AFTER invariant before it is
// applied.
func (s *ProjectService) UpdateImageMetadata(ctx context.Context, projectID, imageID int64, u domain.ImageUpdate) (*domain.Project, error) {
	if u.ImageType != nil && !u.ImageType.Valid() {
		return nil, domain.Validationf("unknown image type %q", *u.ImageType)
	}

	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if u.ImageType != nil {
		if err := checkCompositionAfterTypeChange(p, imageID, *u.ImageType); err != nil {
			return nil, err
		}
	}

	if _, err := s.images.UpdateImage(ctx, projectID, imageID, domain.ImageUpdate{ImageType: u.ImageType, IsFeatured: u.IsFeatured}); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, projectID)
}

// UpdateImageURL swaps the stored location reference of one image.
func (s *ProjectService) UpdateImageURL(ctx context.Context, projectID, imageID int64, url string) (*domain.Image, error) {
	if url == "" {
		return nil, domain.Validationf("url must not be empty")
	}
	return s.images.UpdateImage(ctx, projectID, imageID, domain.ImageUpdate{URL: &url})
}

// DeleteImage removes one image, refusing removals that would leave the
// project without a BEFORE or an AFTER image. The blob is deleted
// best-effort after the row is gone.
func (s *ProjectService) DeleteImage(ctx context.Context, projectID, imageID int64) (*domain.Project, error) {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	img, err := s.images.GetImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}

	if err := checkCompositionAfterRemoval(p, imageID); err != nil {
		return nil, err
	}

	deleted, err := s.images.DeleteImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, domain.ErrImageNotFound
	}

	if derr := s.blobs.Delete(img.URL); derr != nil {
		log.Printf("[projects] blob delete failed for %s: %v", img.URL, derr)
	}

	return s.store.GetByID(ctx, projectID)
}

func checkCompositionAfterRemoval(p *domain.Project, imageID int64) error {
	remaining := *p
	remaining.Images = make([]domain.Image, 0, len(p.Images))
	for i := range p.Images {
		if p.Images[i].ID != imageID {
			remaining.Images = append(remaining.Images, p.Images[i])
		}
	}
	if !remaining.HasComposition() {
		return domain.Validationf("removing this image would leave the project without a BEFORE or AFTER image")
	}
	return nil
}

func checkCompositionAfterTypeChange(p *domain.Project, imageID int64, newType domain.ImageType) error {
	changed := *p
	changed.Images = make([]domain.Image, len(p.Images))
	copy(changed.Images, p.Images)
	for i := range changed.Images {
		if changed.Images[i].ID == imageID {
			changed.Images[i].ImageType = newType
		}
	}
	if !changed.HasComposition() {
		return domain.Validationf("changing this image type would leave the project without a BEFORE or AFTER image")
	}
	return nil
}
