package http

import (
	"time"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
)

// createProjectReq is the JSON carried by the multipart "data" part.
type createProjectReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ServiceCategory string `json:"service_category"`
	CustomerType    string `json:"customer_type"`
	ExecutionDate   string `json:"execution_date"` // YYYY-MM-DD
}

// imageMetaReq is one entry of the multipart "imageMetadata" JSON array,
// paired by index with the "images" files.
type imageMetaReq struct {
	ImageType  string `json:"image_type"`
	IsFeatured bool   `json:"is_featured"`
}

type updateProjectReq struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	ServiceCategory *string `json:"service_category"`
	CustomerType    *string `json:"customer_type"`
	ExecutionDate   *string `json:"execution_date"`
}

type updateImageReq struct {
	ImageType  *string `json:"image_type"`
	IsFeatured *bool   `json:"is_featured"`
}

type updateImageURLReq struct {
	URL string `json:"url"`
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func (r createProjectReq) toProject() (*domain.Project, error) {
	execDate, err := parseDate(r.ExecutionDate)
	if err != nil {
		return nil, err
	}
	return &domain.Project{
		Title:           r.Title,
		Description:     r.Description,
		ServiceCategory: domain.ServiceCategory(r.ServiceCategory),
		CustomerType:    domain.CustomerType(r.CustomerType),
		ExecutionDate:   execDate,
	}, nil
}
