// Package config loads service configuration from config.yml, .env, and the
// process environment.
package config

import (
	"fmt"
	"time"

	"github.com/bomatic/bomatic-server/internal/analysis/gemini"
	"github.com/bomatic/bomatic-server/internal/analysis/openai"
	"github.com/bomatic/bomatic-server/internal/auth/jwt"
	"github.com/bomatic/bomatic-server/internal/database"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/mail"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/stt/daglo"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Server   server.Config   `mapstructure:"server"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Auth     jwt.Config      `mapstructure:"auth"`
	Mail     mail.Config     `mapstructure:"mail"`
	STT      STTConfig       `mapstructure:"stt"`
	Analysis AnalysisConfig  `mapstructure:"analysis"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// STTConfig configures the transcription provider and polling.
type STTConfig struct {
	Daglo        daglo.Config  `mapstructure:"daglo"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

// AnalysisConfig configures the generative analysis provider.
type AnalysisConfig struct {
	// Provider selects the backend: gemini or openai.
	Provider string        `mapstructure:"provider"`
	Gemini   gemini.Config `mapstructure:"gemini"`
	OpenAI   openai.Config `mapstructure:"openai"`
}

// ApplyDefaults fills zero-valued fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bomatic-server"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Analysis.Provider == "" {
		c.Analysis.Provider = "gemini"
	}
	c.Server.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Mail.ApplyDefaults()
	c.STT.Daglo.ApplyDefaults()
	c.Analysis.Gemini.ApplyDefaults()
	c.Analysis.OpenAI.ApplyDefaults()
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.STT.Daglo.Validate(); err != nil {
		return err
	}
	switch c.Analysis.Provider {
	case "gemini":
		if c.Analysis.Gemini.APIKey == "" {
			return fmt.Errorf("config: analysis.gemini.api_key is required")
		}
	case "openai":
		if c.Analysis.OpenAI.APIKey == "" {
			return fmt.Errorf("config: analysis.openai.api_key is required")
		}
	default:
		return fmt.Errorf("config: unknown analysis provider %q", c.Analysis.Provider)
	}
	return nil
}
