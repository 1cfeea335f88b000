package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string
	DBPath   string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	ChatAckMode string
	ChatTimeout time.Duration
}

// Load builds the configuration from, lowest precedence first: defaults, a
// YAML file (configFile, or ./taskflow.yaml when it exists), a .env file in
// the working directory, and TASKFLOW_* environment variables.
// OPENAI_API_KEY is accepted for the model key.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.path", "./taskflow.db")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("chat.ack_mode", "raw")
	v.SetDefault("chat.timeout", "60s")

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "TASKFLOW_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("taskflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:    v.GetString("http.addr"),
		DBPath:      v.GetString("db.path"),
		LLMAPIKey:   v.GetString("llm.api_key"),
		LLMBaseURL:  v.GetString("llm.base_url"),
		LLMModel:    v.GetString("llm.model"),
		LLMTimeout:  v.GetDuration("llm.timeout"),
		ChatAckMode: v.GetString("chat.ack_mode"),
		ChatTimeout: v.GetDuration("chat.timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db.path is required")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("config: llm.timeout must be positive, got %s", c.LLMTimeout)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("config: chat.timeout must be positive, got %s", c.ChatTimeout)
	}
	return nil
}

// RequireLLM reports whether the model gateway can be used.
func (c *Config) RequireLLM() error {
	if c.LLMAPIKey == "" {
		return errors.New("config: llm.api_key (or OPENAI_API_KEY) is not set")
	}
	return nil
}
