package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
	"github.com/algenord/portfolio-backend/internal/storage"
)

type fakeProjectStore struct {
	projects  map[int64]*domain.Project
	nextID    int64
	createErr error
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[int64]*domain.Project)}
}

func (f *fakeProjectStore) Create(_ context.Context, p *domain.Project) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjectStore) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	cp := *p
	cp.Images = append([]domain.Image(nil), p.Images...)
	return &cp, nil
}

func (f *fakeProjectStore) List(_ context.Context, _ domain.ListFilter) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProjectStore) Update(_ context.Context, id int64, u domain.ProjectUpdate) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.projects[id]; !ok {
		return false, nil
	}
	delete(f.projects, id)
	return true, nil
}

// fakeImageStore backs both the transactional insert path and the
// single-image operations. Inserted rows only become visible in the parent
// store on Commit, mirroring the real transaction boundary.
type fakeImageStore struct {
	parent *fakeProjectStore

	nextImageID  int64
	insertFailAt int // 1-based insert call that fails, 0 = never
	beginErr     error

	inserts    []domain.Image
	begun      int
	committed  int
	rolledBack int
}

func (f *fakeImageStore) Begin(_ context.Context) (ImageTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begun++
	return &fakeImageTx{store: f}, nil
}

func (f *fakeImageStore) findImage(projectID, imageID int64) (*domain.Project, int, bool) {
	p, ok := f.parent.projects[projectID]
	if !ok {
		return nil, 0, false
	}
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			return p, i, true
		}
	}
	return nil, 0, false
}

func (f *fakeImageStore) GetImage(_ context.Context, projectID, imageID int64) (*domain.Image, error) {
	p, i, ok := f.findImage(projectID, imageID)
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	img := p.Images[i]
	return &img, nil
}

func (f *fakeImageStore) UpdateImage(_ context.Context, projectID, imageID int64, u domain.ImageUpdate) (*domain.Image, error) {
	p, i, ok := f.findImage(projectID, imageID)
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	if u.ImageType != nil {
		p.Images[i].ImageType = *u.ImageType
	}
	if u.IsFeatured != nil {
		p.Images[i].IsFeatured = *u.IsFeatured
	}
	if u.URL != nil {
		p.Images[i].URL = *u.URL
	}
	img := p.Images[i]
	return &img, nil
}

func (f *fakeImageStore) DeleteImage(_ context.Context, projectID, imageID int64) (bool, error) {
	p, i, ok := f.findImage(projectID, imageID)
	if !ok {
		return false, nil
	}
	p.Images = append(p.Images[:i], p.Images[i+1:]...)
	return true, nil
}

type fakeImageTx struct {
	store   *fakeImageStore
	pending []domain.Image
	done    bool
}

func (t *fakeImageTx) Insert(_ context.Context, img *domain.Image) error {
	t.store.inserts = append(t.store.inserts, *img)
	if t.store.insertFailAt != 0 && len(t.store.inserts) == t.store.insertFailAt {
		return errors.New("insert failed")
	}
	t.store.nextImageID++
	img.ID = t.store.nextImageID
	t.pending = append(t.pending, *img)
	return nil
}

func (t *fakeImageTx) Commit(_ context.Context) error {
	t.done = true
	t.store.committed++
	for _, img := range t.pending {
		if p, ok := t.store.parent.projects[img.ProjectID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	return nil
}

func (t *fakeImageTx) Rollback(_ context.Context) {
	if !t.done {
		t.store.rolledBack++
	}
}

type fakeBlobStore struct {
	attempts  int
	failAt    int // 1-based store call that fails, 0 = never
	storeErr  error
	deleteErr error

	stored  []string
	deleted []string
}

func (f *fakeBlobStore) Store(_ string, _ io.Reader) (string, error) {
	f.attempts++
	if f.failAt != 0 && f.attempts == f.failAt {
		if f.storeErr != nil {
			return "", f.storeErr
		}
		return "", errors.New("disk full")
	}
	loc := fmt.Sprintf("/uploads/blob-%d.png", f.attempts)
	f.stored = append(f.stored, loc)
	return loc, nil
}

func (f *fakeBlobStore) Delete(location string) error {
	f.deleted = append(f.deleted, location)
	return f.deleteErr
}

func newTestService() (*ProjectService, *fakeProjectStore, *fakeImageStore, *fakeBlobStore) {
	store := newFakeProjectStore()
	images := &fakeImageStore{parent: store}
	blobs := &fakeBlobStore{}
	return NewProjectService(store, images, blobs), store, images, blobs
}

func validProject() *domain.Project {
	return &domain.Project{
		Title:           "Roof restoration",
		Description:     "Moss removal and treatment",
		ServiceCategory: domain.CategoryRoofCleaning,
		CustomerType:    domain.CustomerPrivate,
	}
}

func uploadsOf(n int) []Upload {
	out := make([]Upload, n)
	for i := range out {
		out[i] = Upload{
			Filename: fmt.Sprintf("photo-%d.png", i+1),
			Content:  strings.NewReader("image bytes"),
		}
	}
	return out
}

func metasOf(types ...domain.ImageType) []ImageMeta {
	out := make([]ImageMeta, len(types))
	for i, tp := range types {
		out[i] = ImageMeta{ImageType: tp}
	}
	return out
}

func TestCreateProject_Success(t *testing.T) {
	svc, store, images, blobs := newTestService()

	p, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(3), metasOf(domain.ImageBefore, domain.ImageAfter, domain.ImageOther))
	require.NoError(t, err)

	require.Len(t, p.Images, 3)
	// images keep request order and all point at stored blobs
	assert.Equal(t, domain.ImageBefore, p.Images[0].ImageType)
	assert.Equal(t, domain.ImageAfter, p.Images[1].ImageType)
	assert.Equal(t, domain.ImageOther, p.Images[2].ImageType)
	for i, img := range p.Images {
		assert.Equal(t, blobs.stored[i], img.URL)
		assert.Equal(t, p.ID, img.ProjectID)
	}

	assert.Equal(t, 1, images.committed)
	assert.Equal(t, 0, images.rolledBack)
	assert.Empty(t, blobs.deleted)

	persisted, err := store.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, persisted.HasComposition())
}

func TestCreateProject_CountMismatch(t *testing.T) {
	svc, store, images, blobs := newTestService()

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "mismatch")

	// rejected before any side effect
	assert.Zero(t, blobs.attempts)
	assert.Zero(t, images.begun)
	assert.Empty(t, store.projects)
}

func TestCreateProject_NoUploads(t *testing.T) {
	svc, _, _, blobs := newTestService()

	_, err := svc.CreateProject(context.Background(), validProject(), nil, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, blobs.attempts)
}

func TestCreateProject_MissingAfterImage(t *testing.T) {
	svc, store, _, blobs := newTestService()

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageBefore))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "AFTER")
	assert.Zero(t, blobs.attempts)
	assert.Empty(t, store.projects)
}

func TestCreateProject_MissingBeforeImage(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(1), metasOf(domain.ImageAfter))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "BEFORE")
}

func TestCreateProject_InvalidEnums(t *testing.T) {
	svc, _, _, _ := newTestService()

	p := validProject()
	p.ServiceCategory = "WINDOW_CLEANING"
	_, err := svc.CreateProject(context.Background(), p,
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), []ImageMeta{{ImageType: "DURING"}, {ImageType: domain.ImageAfter}})
	require.ErrorAs(t, err, &verr)
}

func TestCreateProject_BlobFailureCompensates(t *testing.T) {
	svc, store, images, blobs := newTestService()
	blobs.failAt = 3

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(5), metasOf(domain.ImageBefore, domain.ImageAfter,
			domain.ImageOther, domain.ImageOther, domain.ImageOther))

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)

	// loop stops at the failing store, later uploads never attempted
	assert.Equal(t, 3, blobs.attempts)
	// the two stored blobs are deleted in reverse order
	assert.Equal(t, []string{"/uploads/blob-2.png", "/uploads/blob-1.png"}, blobs.deleted)
	assert.Equal(t, 1, images.rolledBack)
	assert.Equal(t, 0, images.committed)

	// parent survives as retryable partial state with zero images
	require.Len(t, store.projects, 1)
	for _, p := range store.projects {
		assert.Empty(t, p.Images)
	}
}

func TestCreateProject_InsertFailureDeletesCurrentBlob(t *testing.T) {
	svc, _, images, blobs := newTestService()
	images.insertFailAt = 2

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	require.Error(t, err)

	// the blob of the failed insert is compensated too
	assert.Equal(t, []string{"/uploads/blob-2.png", "/uploads/blob-1.png"}, blobs.deleted)
	assert.Equal(t, 1, images.rolledBack)
	assert.Equal(t, 0, images.committed)
}

func TestCreateProject_CompensationFailureIsSwallowed(t *testing.T) {
	svc, _, _, blobs := newTestService()
	blobs.failAt = 2
	blobs.deleteErr = errors.New("blob store unreachable")

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))

	// the original cause surfaces, not the compensation failure
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.NotContains(t, err.Error(), "unreachable")
	assert.Equal(t, []string{"/uploads/blob-1.png"}, blobs.deleted)
}

func TestCreateProject_EmptyFileStaysCallerError(t *testing.T) {
	svc, _, _, blobs := newTestService()
	blobs.failAt = 1
	blobs.storeErr = storage.ErrEmptyFile

	_, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))

	assert.ErrorIs(t, err, storage.ErrEmptyFile)
	var serr *domain.StorageError
	assert.False(t, errors.As(err, &serr))
}

func TestAddImages_ProjectNotFound(t *testing.T) {
	svc, _, _, blobs := newTestService()

	_, err := svc.AddImages(context.Background(), 99,
		uploadsOf(1), metasOf(domain.ImageOther))

	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.Zero(t, blobs.attempts)
}

func TestAddImages_SkipsCompositionCheck(t *testing.T) {
	svc, _, _, _ := newTestService()

	created, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	require.NoError(t, err)

	// appending only OTHER images is fine, composition cannot regress
	p, err := svc.AddImages(context.Background(), created.ID,
		uploadsOf(2), metasOf(domain.ImageOther, domain.ImageOther))
	require.NoError(t, err)
	assert.Len(t, p.Images, 4)
}

func TestDeleteImage_RefusesBreakingComposition(t *testing.T) {
	svc, _, _, blobs := newTestService()

	created, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	require.NoError(t, err)
	deletesBefore := len(blobs.deleted)

	// the only AFTER image cannot go
	_, err = svc.DeleteImage(context.Background(), created.ID, created.Images[1].ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, blobs.deleted, deletesBefore)

	// a surplus image can
	p, err := svc.AddImages(context.Background(), created.ID,
		uploadsOf(1), metasOf(domain.ImageAfter))
	require.NoError(t, err)

	p, err = svc.DeleteImage(context.Background(), created.ID, p.Images[2].ID)
	require.NoError(t, err)
	assert.Len(t, p.Images, 2)
	assert.Len(t, blobs.deleted, deletesBefore+1)
}

func TestUpdateImageMetadata_RefusesBreakingTypeChange(t *testing.T) {
	svc, _, _, _ := newTestService()

	created, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	require.NoError(t, err)

	other := domain.ImageOther
	_, err = svc.UpdateImageMetadata(context.Background(), created.ID, created.Images[0].ID,
		domain.ImageUpdate{ImageType: &other})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	// flipping featured alone never touches composition
	featured := true
	p, err := svc.UpdateImageMetadata(context.Background(), created.ID, created.Images[0].ID,
		domain.ImageUpdate{IsFeatured: &featured})
	require.NoError(t, err)
	assert.True(t, p.Images[0].IsFeatured)
}

func TestDelete_RemovesBlobsBestEffort(t *testing.T) {
	svc, store, _, blobs := newTestService()

	created, err := svc.CreateProject(context.Background(), validProject(),
		uploadsOf(2), metasOf(domain.ImageBefore, domain.ImageAfter))
	require.NoError(t, err)

	blobs.deleteErr = errors.New("transient")
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	assert.Empty(t, store.projects)
	assert.Len(t, blobs.deleted, 2)
}
