package domain

import "time"

type ServiceCategory string

const (
	CategoryRoofCleaning   ServiceCategory = "ROOF_CLEANING"
	CategoryFacadeCleaning ServiceCategory = "FACADE_CLEANING"
	CategoryTileCleaning   ServiceCategory = "TILE_CLEANING"
	CategoryAlgaeTreatment ServiceCategory = "ALGAE_TREATMENT"
	CategoryOther          ServiceCategory = "OTHER"
)

func (s ServiceCategory) Valid() bool {
	switch s {
	case CategoryRoofCleaning, CategoryFacadeCleaning, CategoryTileCleaning, CategoryAlgaeTreatment, CategoryOther:
		return true
	}
	return false
}

type CustomerType string

const (
	CustomerPrivate  CustomerType = "PRIVATE"
	CustomerBusiness CustomerType = "BUSINESS"
)

func (c CustomerType) Valid() bool {
	return c == CustomerPrivate || c == CustomerBusiness
}

type ImageType string

const (
	ImageBefore ImageType = "BEFORE"
	ImageAfter  ImageType = "AFTER"
	ImageOther  ImageType = "OTHER"
)

func (t ImageType) Valid() bool {
	return t == ImageBefore || t == ImageAfter || t == ImageOther
}

// Image is owned by exactly one Project and cannot exist without a
// successfully stored blob behind its URL.
type Image struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	URL        string    `json:"url"`
	ImageType  ImageType `json:"image_type"`
	IsFeatured bool      `json:"is_featured"`
}

type Project struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ServiceCategory ServiceCategory `json:"service_category"`
	CustomerType    CustomerType    `json:"customer_type"`
	ExecutionDate   time.Time       `json:"execution_date"`
	CreatedAt       time.Time       `json:"created_at"`
	Images          []Image         `json:"images"`
}

// HasComposition reports whether the image set holds at least one BEFORE and
// one AFTER image - the project-level invariant every mutating image
// operation must preserve.
func (p *Project) HasComposition() bool {
	var before, after bool
	for i := range p.Images {
		switch p.Images[i].ImageType {
		case ImageBefore:
			before = true
		case ImageAfter:
			after = true
		}
	}
	return before && after
}

// ListFilter narrows and orders project listings.
type ListFilter struct {
	ServiceCategory ServiceCategory // empty = all
	CustomerType    CustomerType    // empty = all
	Sort            string          // "asc" or "desc" by execution date
}

// ProjectUpdate carries optional project fields. Nil means "leave unchanged".
type ProjectUpdate struct {
	Title           *string
	Description     *string
	ServiceCategory *ServiceCategory
	CustomerType    *CustomerType
	ExecutionDate   *time.Time
}

// ImageUpdate carries optional image metadata fields.
type ImageUpdate struct {
	ImageType  *ImageType
	IsFeatured *bool
	URL        *string
}
