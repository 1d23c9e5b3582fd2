package providers

import (
	"fmt"

	"github.com/kickai-team/kickai/internal/config"
)

// FromConfig builds the configured provider. "hosted" is Anthropic; "local"
// is any OpenAI-compatible server.
func FromConfig(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "hosted":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("hosted llm provider needs an api key")
		}
		return NewAnthropicProvider(cfg.APIKey,
			WithAnthropicModel(cfg.Model),
			WithAnthropicBaseURL(cfg.BaseURL),
		), nil
	case "local":
		return NewLocalProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
