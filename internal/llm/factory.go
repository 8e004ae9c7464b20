package llm

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/rag-eval/internal/config"
)

// NewRegistryFromConfig builds a registry with one provider per
// configured entry, honoring the configured default.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}

	reg := NewRegistry()
	for name, pc := range cfg.LLM.Providers {
		p, err := newProvider(name, pc)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(name, p); err != nil {
			return nil, err
		}
	}

	if len(reg.Names()) == 0 {
		return nil, fmt.Errorf("llm: no providers configured")
	}

	if def := strings.TrimSpace(cfg.LLM.DefaultProvider); def != "" {
		if err := reg.SetDefault(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DefaultProviderFromConfig builds only the configured default provider.
func DefaultProviderFromConfig(cfg *config.Config) (Provider, error) {
	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return reg.Default()
}

func newProvider(name string, pc config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "claude", "anthropic":
		return NewClaudeProvider(pc.APIKey, pc.BaseURL, pc.Model), nil
	case "openai":
		return NewOpenAIProvider(pc.APIKey, pc.BaseURL, pc.Model), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", name)
	}
}
