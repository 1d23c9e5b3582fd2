// Package config loads the kickai runtime configuration from a YAML file
// with environment variable overrides. Missing mandatory options fail the
// process at startup; there is no degraded mode.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// LLMConfig selects and parametrizes the chat-completion backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"KICKAI_LLM_PROVIDER" env-default:"hosted"` // "hosted" or "local"
	Model       string  `yaml:"model" env:"KICKAI_LLM_MODEL" env-required:"true"`
	Temperature float64 `yaml:"temperature" env:"KICKAI_LLM_TEMPERATURE" env-default:"0.3"`
	APIKey      string  `yaml:"-" env:"KICKAI_LLM_API_KEY"` // hosted only, env only
	BaseURL     string  `yaml:"base_url" env:"KICKAI_LLM_BASE_URL"`
}

// MongoConfig configures the document store.
type MongoConfig struct {
	URI      string `yaml:"uri" env:"KICKAI_MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"KICKAI_MONGO_DATABASE" env-default:"kickai"`
}

// BootstrapTeam seeds the default team on first start when storage is empty.
// Tokens come from env only and are never persisted to the YAML file.
type BootstrapTeam struct {
	Name               string `yaml:"name" env-default:"Default Team"`
	MainChatID         string `yaml:"main_chat_id" env:"KICKAI_MAIN_CHAT_ID"`
	LeadershipChatID   string `yaml:"leadership_chat_id" env:"KICKAI_LEADERSHIP_CHAT_ID"`
	BotMainToken       string `yaml:"-" env:"KICKAI_BOT_MAIN_TOKEN"`
	BotLeadershipToken string `yaml:"-" env:"KICKAI_BOT_LEADERSHIP_TOKEN"`
}

// Config is the root runtime configuration.
type Config struct {
	DefaultTeamID string        `yaml:"default_team_id" env:"KICKAI_DEFAULT_TEAM_ID" env-required:"true"`
	Storage       string        `yaml:"storage" env:"KICKAI_STORAGE" env-default:"mongodb"` // "mongodb" or "memory"
	Mongo         MongoConfig   `yaml:"mongo"`
	LLM           LLMConfig     `yaml:"llm"`
	Bootstrap     BootstrapTeam `yaml:"bootstrap"`

	InviteSecretKey string        `yaml:"-" env:"KICKAI_INVITE_SECRET_KEY" env-required:"true"`
	InviteTTL       time.Duration `yaml:"invite_ttl" env:"KICKAI_INVITE_TTL" env-default:"72h"`
	AgentDeadline   time.Duration `yaml:"agent_deadline" env:"KICKAI_AGENT_DEADLINE" env-default:"30s"`

	LogLevel  string `yaml:"log_level" env:"KICKAI_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"KICKAI_LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from the given path (optional) plus environment.
// An empty path reads environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file %s: %w", path, statErr)
		}
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %w\n%s", err, desc)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case "mongodb", "memory":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	switch c.LLM.Provider {
	case "hosted", "local":
	default:
		return fmt.Errorf("config: llm provider must be \"hosted\" or \"local\", got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "hosted" && c.LLM.APIKey == "" {
		return fmt.Errorf("config: KICKAI_LLM_API_KEY is required for the hosted provider")
	}
	if len(c.InviteSecretKey) < 16 {
		return fmt.Errorf("config: invite secret key must be at least 16 bytes")
	}
	if c.AgentDeadline <= 0 {
		return fmt.Errorf("config: agent_deadline must be positive")
	}
	if c.InviteTTL <= 0 {
		return fmt.Errorf("config: invite_ttl must be positive")
	}
	return nil
}
