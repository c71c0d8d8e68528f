// Package models discovers available providers from configuration and
// builds the gateway's provider registry. Discovery runs in strict priority
// tiers: earlier tiers claim model ids before later ones are considered,
// which yields a deterministic "best available backend per model" without
// explicit user configuration.
package models

import (
	"os"

	"github.com/strixlab/strix/provider"
	"github.com/strixlab/strix/provider/anthropic"
	"github.com/strixlab/strix/provider/openai"
	"github.com/strixlab/strix/provider/sdk"
)

// Config carries the upstream credentials and overrides discovery works
// from. It is collected once at process startup; nothing below this point
// reads the process environment.
type Config struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIBaseURL    string

	// EnableSDK activates the SDK-backed provider tier ahead of the
	// built-in direct-HTTP tier.
	EnableSDK bool
}

// ConfigFromEnv collects provider configuration from the process
// environment. Absent variables stay empty and silently skip their
// discovery entries; absence is never an error.
func ConfigFromEnv() Config {
	return Config{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		EnableSDK:        os.Getenv("STRIX_SDK_PROVIDERS") != "",
	}
}

// candidate pairs model metadata with a factory so a provider is only
// constructed when its id is still unclaimed.
type candidate struct {
	info  provider.ModelInfo
	build func() provider.Provider
}

type tier struct {
	name       string
	candidates func(Config) []candidate
}

// tiers lists the discovery tiers in priority order.
func tiers() []tier {
	return []tier{
		{name: "sdk", candidates: sdkCandidates},
		{name: "builtin", candidates: builtinCandidates},
	}
}

func sdkCandidates(cfg Config) []candidate {
	if !cfg.EnableSDK || cfg.OpenAIAPIKey == "" {
		return nil
	}
	return []candidate{{
		info: provider.ModelInfo{ID: "gpt-4o", Provider: "openai-sdk", DisplayName: "GPT-4o (sdk)"},
		build: func() provider.Provider {
			return sdk.New(cfg.OpenAIAPIKey, "gpt-4o", cfg.OpenAIBaseURL)
		},
	}}
}

func builtinCandidates(cfg Config) []candidate {
	var cands []candidate
	if cfg.AnthropicAPIKey != "" {
		cands = append(cands, candidate{
			info: provider.ModelInfo{ID: "claude-sonnet-4-20250514", Provider: "anthropic", DisplayName: "Claude Sonnet 4"},
			build: func() provider.Provider {
				return anthropic.New(cfg.AnthropicAPIKey, "claude-sonnet-4-20250514", cfg.AnthropicBaseURL)
			},
		})
	}
	if cfg.OpenAIAPIKey != "" {
		cands = append(cands, candidate{
			info: provider.ModelInfo{ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o"},
			build: func() provider.Provider {
				return openai.New(cfg.OpenAIAPIKey, "gpt-4o", cfg.OpenAIBaseURL)
			},
		})
	}
	return cands
}

// FromConfig builds a registry by evaluating every tier top-down. A
// candidate registers only when its credentials are configured and no
// higher-priority tier already claimed its model id.
func FromConfig(cfg Config) *provider.Registry {
	reg := provider.NewRegistry()
	for _, t := range tiers() {
		for _, c := range t.candidates(cfg) {
			if _, ok := reg.Get(c.info.ID); ok {
				continue
			}
			reg.Register(c.info, c.build())
		}
	}
	return reg
}
