package misim

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName   = "misim"
	DefaultOutputDir = "output"

	// DefaultProvider selects the OpenAI-compatible backend.
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIURL   = "https://api.openai.com/v1"
)

var DefaultConfigPath = defaultConfigPath()

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, DefaultAppName)
	}
	return filepath.Join(".", "."+DefaultAppName)
}
