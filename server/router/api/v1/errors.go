package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/keypoints/ai/core/llm"
	"github.com/hrygo/keypoints/ai/summary"
	"github.com/hrygo/keypoints/plugin/extract"
)

const (
	detailFileRequired    = "file is required"
	detailUnsupportedType = "Unsupported file type"
)

// toHTTPError maps an upload failure to its status and client-facing detail.
// Dev mode exposes the error message; prod mode a fixed message per category.
func (s *APIV1Service) toHTTPError(err error) *echo.HTTPError {
	status, detail := classifyError(err)
	if s.Profile != nil && s.Profile.IsDev() && status >= http.StatusInternalServerError {
		if msg := err.Error(); msg != "" {
			detail = msg
		}
	}
	return echo.NewHTTPError(status, detail).SetInternal(err)
}

func classifyError(err error) (int, string) {
	var (
		formErr    *formError
		decodeErr  *extract.DecodeError
		ocrErr     *extract.OCRError
		extractErr *extract.ExtractionError
		transport  *llm.TransportError
		upstream   *llm.UpstreamError
		malformed  *llm.MalformedResponseError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusBadRequest, detailUnsupportedType
	case errors.As(err, &httpErr):
		// Body limit and other middleware errors surface through the form reader.
		return httpErr.Code, http.StatusText(httpErr.Code)
	case errors.As(err, &formErr):
		if formErr.missing() {
			return http.StatusBadRequest, detailFileRequired
		}
		return http.StatusBadRequest, "invalid multipart form"
	case errors.As(err, &decodeErr):
		return http.StatusInternalServerError, "failed to decode text file"
	case errors.As(err, &ocrErr):
		return http.StatusInternalServerError, "Error processing image"
	case errors.As(err, &extractErr):
		return http.StatusInternalServerError, "failed to extract text"
	case errors.As(err, &transport):
		return http.StatusInternalServerError, "completion service unreachable"
	case errors.As(err, &upstream):
		return http.StatusInternalServerError, "completion service error"
	case errors.As(err, &malformed):
		return http.StatusInternalServerError, "invalid response from completion service"
	case errors.Is(err, summary.ErrNoKeyPoints):
		return http.StatusInternalServerError, "completion service returned no key points"
	case errors.Is(err, context.Canceled):
		return http.StatusInternalServerError, "request canceled"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
