package llm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/keypoints/ai/internal/strutil"
	"github.com/hrygo/keypoints/ai/observability/logging"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats represents statistics for a single LLM call.
type CallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// Service is the completion service interface.
type Service interface {
	// Chat performs one synchronous chat completion. Returns content, statistics, and error.
	Chat(ctx context.Context, messages []Message) (string, *CallStats, error)

	// Complete sends prompt as the single user message of a new conversation.
	Complete(ctx context.Context, prompt string) (string, *CallStats, error)
}

// Config represents LLM service configuration.
type Config struct {
	Provider string // openrouter, openai, deepseek, ollama
	Model    string // deepseek/deepseek-r1:free, gpt-4o-mini
	APIKey   string
	BaseURL  string
	Referer  string // optional HTTP-Referer header (OpenRouter app attribution)
	Title    string // optional X-Title header
	Timeout  int    // Request timeout in seconds (default: 120)
}

var providerBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"openai":     "https://api.openai.com/v1",
	"deepseek":   "https://api.deepseek.com",
	"ollama":     "http://localhost:11434/v1",
}

type service struct {
	client   *openai.Client
	model    string
	provider string
	timeout  int // Request timeout in seconds
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		defaultURL, ok := providerBaseURLs[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unsupported provider %q without base URL", cfg.Provider)
		}
		baseURL = defaultURL
	}

	headers := http.Header{}
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		headers.Set("X-Title", cfg.Title)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &headerDoer{client: newHTTPClient(), headers: headers}

	// Set default timeout if not configured
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		provider: cfg.Provider,
		timeout:  timeout,
	}, nil
}

func (s *service) Complete(ctx context.Context, prompt string) (string, *CallStats, error) {
	return s.Chat(ctx, []Message{UserMessage(prompt)})
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	log := logging.FromContext(ctx)
	log.Debug("LLM: Chat request",
		"provider", s.provider,
		"model", s.model,
		"messages_count", len(messages),
	)

	startTime := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: convertMessages(messages),
	})
	if err != nil {
		classified := classifyError(err)
		log.Error("LLM: Chat request failed",
			"model", s.model,
			"error", classified,
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
		return "", nil, classified
	}

	if len(resp.Choices) == 0 {
		log.Warn("LLM: Empty choices in response", "model", s.model)
		return "", nil, &MalformedResponseError{Reason: "response has no choices"}
	}

	if msg := resp.Choices[0].Message; msg.Content == "" && len(msg.ToolCalls) == 0 && msg.FunctionCall == nil {
		log.Warn("LLM: Choice has no message content", "model", s.model)
		return "", nil, &MalformedResponseError{Reason: "choice has no message content"}
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	content := resp.Choices[0].Message.Content
	log.Debug("LLM: Chat response received",
		"content_length", len(content),
		"content_preview", strutil.Truncate(content, 200),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return content, stats, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return llmMessages
}

// headerDoer adds fixed headers to every outbound request.
type headerDoer struct {
	client  *http.Client
	headers http.Header
}

func (d *headerDoer) Do(req *http.Request) (*http.Response, error) {
	for key, values := range d.headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
	return d.client.Do(req)
}

// newHTTPClient has no overall timeout; the per-call context bounds each request.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
