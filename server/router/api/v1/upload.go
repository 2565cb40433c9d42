package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/keypoints/ai/observability/logging"
	"github.com/hrygo/keypoints/ai/observability/tracing"
	"github.com/hrygo/keypoints/ai/summary"
	"github.com/hrygo/keypoints/plugin/extract"
)

const uploadField = "file"

// UploadResponse is the success body of POST /upload-file.
type UploadResponse struct {
	Summary string `json:"summary"`
}

// UploadFile extracts the text of the uploaded file and returns its key points.
func (s *APIV1Service) UploadFile(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()

	resp, kind, err := s.uploadFile(ctx, c)
	status := http.StatusOK
	if err != nil {
		httpErr := s.toHTTPError(err)
		status = httpErr.Code
		logging.FromContext(ctx).Error("upload failed",
			"kind", kind.String(),
			"status", status,
			"error", err,
		)
		err = httpErr
	}

	if s.Metrics != nil {
		s.Metrics.RecordUpload(kind.String(), status, time.Since(start))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) uploadFile(ctx context.Context, c echo.Context) (*UploadResponse, extract.Kind, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return nil, extract.Unknown, &formError{err: err}
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	kind := extract.Classify(contentType)
	if kind == extract.Unknown {
		return nil, kind, extract.ErrUnsupportedType
	}

	f, err := fh.Open()
	if err != nil {
		return nil, kind, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	extractCtx, span := tracing.StartSpan(ctx, "extract")
	span.SetAttr("kind", kind.String())
	span.SetAttr("size", fh.Size)
	text, kind, err := s.Extractor.Extract(extractCtx, f, contentType)
	span.SetAttr("text_length", len(text))
	span.RecordError(err)
	span.End()
	if err != nil {
		return nil, kind, err
	}

	var result *summary.SummarizeResponse
	err = tracing.WithSpan(ctx, "summarize", func(ctx context.Context) error {
		var err error
		result, err = s.Summarizer.Summarize(ctx, &summary.SummarizeRequest{Text: text})
		return err
	})
	if err != nil {
		return nil, kind, err
	}

	return &UploadResponse{Summary: result.Summary}, kind, nil
}

// formError reports a request without a readable "file" part.
type formError struct {
	err error
}

func (e *formError) Error() string { return "read upload: " + e.err.Error() }

func (e *formError) Unwrap() error { return e.err }

func (e *formError) missing() bool {
	return errors.Is(e.err, http.ErrMissingFile) || errors.Is(e.err, http.ErrNotMultipart)
}
