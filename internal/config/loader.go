package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps well-known environment variables onto config keys so
// secrets never have to live in config.yml.
var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"log.level":               "LOG_LEVEL",
	"database.dsn":            "DATABASE_DSN",
	"auth.secret":             "AUTH_JWT_SECRET",
	"mail.host":               "SMTP_HOST",
	"mail.port":               "SMTP_PORT",
	"mail.username":           "SMTP_USERNAME",
	"mail.password":           "SMTP_PASSWORD",
	"stt.daglo.api_key":       "DAGLO_API_KEY",
	"analysis.provider":       "ANALYSIS_PROVIDER",
	"analysis.gemini.api_key": "GEMINI_API_KEY",
	"analysis.openai.api_key": "OPENAI_API_KEY",
}

// Load reads config.yml (if present), a .env file (if present), and the
// process environment, then unmarshals the result. Defaults are applied and
// the result validated before returning.
func Load(configFile, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if exists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" && exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	for _, path := range []string{
		"./config.yml",
		"./config/config.yml",
		"./cmd/server/config.yml",
	} {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
