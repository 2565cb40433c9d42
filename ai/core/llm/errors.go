package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned by NewService when no credential is configured.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

// TransportError reports that the completion service could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError reports a non-success HTTP status from the completion service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a success response whose body has an unexpected shape.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed completion response: %s: %v", e.Reason, e.Err)
	}
	return "malformed completion response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// maxErrorBody bounds the upstream body kept in UpstreamError.
const maxErrorBody = 2048

// classifyError maps a go-openai client error onto the completion error taxonomy.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: clip(apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: clip(body)}
	}

	// HTTP client failures (dial, TLS, timeout, cancellation, dropped connection).
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Err: err}
	}

	var (
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &unmarshalErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &MalformedResponseError{Reason: "invalid JSON body", Err: err}
	}

	return &TransportError{Err: err}
}

func clip(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
