package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/keypoints/internal/version"
)

// APIKeyEnv is the environment variable holding the completion service credential.
const APIKeyEnv = "OPENROUTER_API_KEY"

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol)
	LLMProvider string // openrouter, openai, deepseek, ollama
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string
	LLMReferer  string // sent as HTTP-Referer, defaults to CORSOrigin
	LLMTitle    string // sent as X-Title
	LLMTimeout  int    // seconds

	// OCR configuration
	OCRBin       string
	OCRLanguages string

	Mode        string
	Addr        string
	CORSOrigin  string
	LogLevel    string
	Version     string
	Port        int
	MaxUploadMB int64
}

// Provider default configurations for LLM.
// Used when the base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-r1:free",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads the credential and fills provider defaults for anything not set by flags.
func (p *Profile) FromEnv() {
	p.LLMAPIKey = strings.TrimSpace(getEnvOrDefault(APIKeyEnv, os.Getenv("KEYPOINTS_LLM_API_KEY")))

	if p.LLMProvider == "" {
		p.LLMProvider = "openrouter"
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = getEnvOrDefaultInt("KEYPOINTS_LLM_TIMEOUT_SECONDS", 120)
	}
	if p.LLMTitle == "" {
		p.LLMTitle = getEnvOrDefault("KEYPOINTS_LLM_TITLE", "File Summary Chatbot")
	}
	if p.LLMReferer == "" {
		p.LLMReferer = p.CORSOrigin
	}

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok && p.LLMBaseURL == "" {
		slog.Warn("Unknown LLM provider without base URL, using default: openrouter", "provider", p.LLMProvider)
		p.LLMProvider = "openrouter"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	if p.OCRBin == "" {
		p.OCRBin = "tesseract"
	}
	if p.OCRLanguages == "" {
		p.OCRLanguages = "eng"
	}
}

// Validate normalises the mode and rejects configurations the server cannot start with.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.LLMAPIKey == "" {
		return errors.Errorf("%s is required but not set", APIKeyEnv)
	}
	if p.LLMModel == "" {
		return errors.Errorf("no model configured for LLM provider %q", p.LLMProvider)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.MaxUploadMB <= 0 {
		return errors.Errorf("invalid max upload size %dMB", p.MaxUploadMB)
	}
	if strings.TrimSpace(p.CORSOrigin) == "" {
		return errors.New("cors origin must not be empty")
	}
	if p.LLMTimeout <= 0 {
		return errors.Wrapf(errInvalidTimeout, "timeout %ds", p.LLMTimeout)
	}
	if p.Version != "" && !version.IsValid(p.Version) {
		return errors.Errorf("invalid version %q, check the -ldflags value", p.Version)
	}

	return nil
}

var errInvalidTimeout = errors.New("LLM timeout must be positive")
