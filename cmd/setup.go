package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/legate-ai/legate/internal/agent"
	"github.com/legate-ai/legate/internal/config"
	"github.com/legate-ai/legate/internal/llm"
	"github.com/legate-ai/legate/internal/tools"
)

// loadConfig reads the config document and layers flag and LEGATE_*
// environment overrides on top of it. A missing config file is not an
// error; flags and environment alone can carry a minimal setup.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, statErr := os.Stat(cfgFile); statErr == nil {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		parsed, err := config.Parse(nil)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	if v := viper.GetString("base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.LLM.Model = v
	}
	return cfg, nil
}

// buildAgent wires provider, tool hub and session from the configuration
// and connects everything. The returned session is ready for Run.
func buildAgent(ctx context.Context, cfg *config.Config) (*llm.OpenAIProvider, *tools.Hub, *agent.Session, error) {
	if cfg.LLM.BaseURL == "" {
		return nil, nil, nil, errors.New("completion endpoint not configured; set llm.base_url in the config file, LEGATE_BASE_URL, or --base-url")
	}

	provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	if provider.Model() == "" {
		models, err := provider.DetectModels(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("detect models: %w", err)
		}
		if len(models) == 0 {
			return nil, nil, nil, errors.New("server reports no models; set llm.model explicitly")
		}
		provider.SetModel(models[0])
	}

	var builtin *tools.Registry
	if cfg.BuiltinTools {
		workingDir, err := os.Getwd()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("resolve working directory: %w", err)
		}
		builtin = tools.NewRegistry(workingDir)
	}

	var hub *tools.Hub
	if len(cfg.MCPServers) > 0 || builtin != nil {
		hub = tools.NewHub(cfg.MCPServers, builtin)
	}

	sess := newSession(provider, hub, cfg)
	if err := sess.Connect(ctx); err != nil {
		return nil, nil, nil, err
	}
	return provider, hub, sess, nil
}

// newSession builds a session over an already-constructed hub. The hub may
// be nil when no tools are configured.
func newSession(provider *llm.OpenAIProvider, hub *tools.Hub, cfg *config.Config) *agent.Session {
	var backend agent.ToolBackend
	if hub != nil {
		backend = hub
	}
	return agent.New(provider, backend, agent.Config{
		SystemPrompt: cfg.ResolvedPrompt(),
		MaxTurns:     cfg.MaxTurns,
	})
}
