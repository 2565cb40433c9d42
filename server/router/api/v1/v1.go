package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/keypoints/ai/metrics"
	"github.com/hrygo/keypoints/ai/summary"
	"github.com/hrygo/keypoints/internal/profile"
	"github.com/hrygo/keypoints/plugin/extract"
)

type APIV1Service struct {
	Profile    *profile.Profile
	Extractor  *extract.Extractor
	Summarizer summary.Summarizer
	Metrics    *metrics.Exporter
}

func NewAPIV1Service(profile *profile.Profile, extractor *extract.Extractor, summarizer summary.Summarizer, exporter *metrics.Exporter) *APIV1Service {
	return &APIV1Service{
		Profile:    profile,
		Extractor:  extractor,
		Summarizer: summarizer,
		Metrics:    exporter,
	}
}

// RegisterRoutes mounts the v1 endpoints on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.POST("/upload-file", s.UploadFile)
}
