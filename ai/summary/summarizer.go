package summary

import (
	"context"
	"errors"
	"time"

	"github.com/hrygo/keypoints/ai/core/llm"
)

// ErrNoKeyPoints is returned when the model reply contains no usable line.
var ErrNoKeyPoints = errors.New("completion service returned no key points")

// Summarizer turns extracted document text into a numbered key-point list.
type Summarizer interface {
	// Summarize issues exactly one completion call for req.Text.
	Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest is the extracted text of one uploaded document.
type SummarizeRequest struct {
	Text string
}

// SummarizeResponse carries the formatted summary.
type SummarizeResponse struct {
	Summary string
	Points  int
	Stats   *llm.CallStats
	Latency time.Duration
}
