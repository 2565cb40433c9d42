package summary

import (
	"context"
	"time"

	"github.com/hrygo/keypoints/ai/core/llm"
	"github.com/hrygo/keypoints/ai/format"
	"github.com/hrygo/keypoints/ai/metrics"
	"github.com/hrygo/keypoints/ai/observability/logging"
)

const promptPrefix = "Summarize the following text and extract key points in a clean numbered list (maximum 15 points): "

// BuildPrompt prepends the fixed instruction to text.
func BuildPrompt(text string) string {
	return promptPrefix + text
}

// llmSummarizer asks the completion service for key points.
type llmSummarizer struct {
	llm     llm.Service
	metrics *metrics.Exporter
}

// NewSummarizer creates a Summarizer. exporter may be nil.
func NewSummarizer(llmSvc llm.Service, exporter *metrics.Exporter) Summarizer {
	return &llmSummarizer{
		llm:     llmSvc,
		metrics: exporter,
	}
}

func (s *llmSummarizer) Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	start := time.Now()

	raw, stats, err := s.llm.Complete(ctx, BuildPrompt(req.Text))
	if err != nil {
		s.record("error", time.Since(start), nil)
		return nil, err
	}
	s.record("success", time.Since(start), stats)

	points := format.Points(raw)
	if len(points) == 0 {
		logging.FromContext(ctx).Warn("summary: model reply had no key points",
			"reply_length", len(raw),
		)
		return nil, ErrNoKeyPoints
	}

	return &SummarizeResponse{
		Summary: format.Render(points),
		Points:  len(points),
		Stats:   stats,
		Latency: time.Since(start),
	}, nil
}

func (s *llmSummarizer) record(status string, latency time.Duration, stats *llm.CallStats) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLLMCall(status, latency)
	if stats != nil {
		s.metrics.RecordLLMTokens("prompt", stats.PromptTokens)
		s.metrics.RecordLLMTokens("completion", stats.CompletionTokens)
	}
}
