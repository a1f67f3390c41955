package http

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/algenord/portfolio-backend/internal/cache"
	"github.com/algenord/portfolio-backend/internal/projects/domain"
	"github.com/algenord/portfolio-backend/internal/projects/service"
	"github.com/algenord/portfolio-backend/internal/storage"
)

// Handler serves the project catalog routes. The authentication gate runs
// before any of these; mutating routes are only reachable with the ADMIN
// role.
type Handler struct {
	svc   *service.ProjectService
	blobs storage.BlobStore
	cache *cache.ProjectCache
}

func Register(rg *gin.RouterGroup, svc *service.ProjectService, blobs storage.BlobStore, projectCache *cache.ProjectCache) {
	h := &Handler{svc: svc, blobs: blobs, cache: projectCache}

	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.POST("", h.create)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/upload", h.upload)
	rg.PATCH("/:id/images", h.addImages)
	rg.PATCH("/:id/images/:imageID", h.updateImage)
	rg.PUT("/:id/images/:imageID/url", h.updateImageURL)
	rg.DELETE("/:id/images/:imageID", h.deleteImage)
}

func (h *Handler) list(c *gin.Context) {
	filter := domain.ListFilter{
		ServiceCategory: domain.ServiceCategory(c.Query("service_category")),
		CustomerType:    domain.CustomerType(c.Query("customer_type")),
		Sort:            c.DefaultQuery("sort", "desc"),
	}

	key := cache.ListKey(filter)
	if cached, ok := h.cache.GetList(c.Request.Context(), key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	projects, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.SetList(c.Request.Context(), key, projects)
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if cached, ok := h.cache.GetProject(c.Request.Context(), id); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.SetProject(c.Request.Context(), p)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "multipart form required"})
		return
	}

	var req createProjectReq
	if !bindJSONPart(c, form, "data", &req) {
		return
	}
	metas, ok := bindImageMetadata(c, form)
	if !ok {
		return
	}

	project, err := req.toProject()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "execution_date must be YYYY-MM-DD"})
		return
	}
	if strings.TrimSpace(project.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "title is required"})
		return
	}

	uploads, cleanup, err := openUploads(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read uploaded files"})
		return
	}
	defer cleanup()

	created, err := h.svc.CreateProject(c.Request.Context(), project, uploads, metas)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) addImages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "multipart form required"})
		return
	}
	metas, ok := bindImageMetadata(c, form)
	if !ok {
		return
	}

	uploads, cleanup, err := openUploads(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read uploaded files"})
		return
	}
	defer cleanup()

	updated, err := h.svc.AddImages(c.Request.Context(), id, uploads, metas)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	update := domain.ProjectUpdate{Title: req.Title, Description: req.Description}
	if req.ServiceCategory != nil {
		sc := domain.ServiceCategory(*req.ServiceCategory)
		update.ServiceCategory = &sc
	}
	if req.CustomerType != nil {
		ct := domain.CustomerType(*req.CustomerType)
		update.CustomerType = &ct
	}
	if req.ExecutionDate != nil {
		d, err := parseDate(*req.ExecutionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "execution_date must be YYYY-MM-DD"})
			return
		}
		update.ExecutionDate = &d
	}

	p, err := h.svc.Update(c.Request.Context(), id, update)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, p)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateImage(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(c, "imageID")
	if !ok {
		return
	}

	var req updateImageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	update := domain.ImageUpdate{IsFeatured: req.IsFeatured}
	if req.ImageType != nil {
		it := domain.ImageType(*req.ImageType)
		update.ImageType = &it
	}

	p, err := h.svc.UpdateImageMetadata(c.Request.Context(), projectID, imageID, update)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateImageURL(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(c, "imageID")
	if !ok {
		return
	}

	var req updateImageURLReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "url is required"})
		return
	}

	img, err := h.svc.UpdateImageURL(c.Request.Context(), projectID, imageID, req.URL)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, img)
}

func (h *Handler) deleteImage(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(c, "imageID")
	if !ok {
		return
	}

	p, err := h.svc.DeleteImage(c.Request.Context(), projectID, imageID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, p)
}

// upload stores a single file outside any project, handing back its public
// URL. Used together with the image-url update route.
func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	url, err := h.blobs.Store(fileHeader.Filename, f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSONPart(c *gin.Context, form *multipart.Form, name string, dst any) bool {
	vals := form.Value[name]
	if len(vals) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": name + " part is required"})
		return false
	}
	if err := json.Unmarshal([]byte(vals[0]), dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": name + " part is not valid JSON"})
		return false
	}
	return true
}

func bindImageMetadata(c *gin.Context, form *multipart.Form) ([]service.ImageMeta, bool) {
	var reqs []imageMetaReq
	if !bindJSONPart(c, form, "imageMetadata", &reqs) {
		return nil, false
	}

	metas := make([]service.ImageMeta, 0, len(reqs))
	for _, r := range reqs {
		metas = append(metas, service.ImageMeta{
			ImageType:  domain.ImageType(r.ImageType),
			IsFeatured: r.IsFeatured,
		})
	}
	return metas, true
}

// openUploads opens every multipart file and pairs it into service uploads.
// The returned cleanup closes them all.
func openUploads(files []*multipart.FileHeader) ([]service.Upload, func(), error) {
	uploads := make([]service.Upload, 0, len(files))
	open := make([]multipart.File, 0, len(files))
	cleanup := func() {
		for _, f := range open {
			_ = f.Close()
		}
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		open = append(open, f)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, cleanup, nil
}

// writeError maps workflow errors onto the response codes the boundary
// promises: 400 for caller input, 404 for missing rows, 500 for storage and
// unexpected failures. Secrets and filesystem paths never leave the server.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var pathErr *storage.PathEscapeError
	var storeErr *domain.StorageError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Error()})
	case errors.As(err, &pathErr):
		log.Printf("[security] blob path escape attempt: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid file name"})
	case errors.Is(err, storage.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "uploaded file is empty"})
	case errors.Is(err, domain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "image not found"})
	case errors.As(err, &storeErr):
		log.Printf("[projects] storage failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "image storage failed"})
	default:
		log.Printf("[projects] unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
