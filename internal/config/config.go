package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// CorpusConfig holds knowledge-base configuration
type CorpusConfig struct {
	Path string `mapstructure:"path"`
	TopK int    `mapstructure:"top_k"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	Host            string  `mapstructure:"host"`
	Model           string  `mapstructure:"model"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Timeout         int     `mapstructure:"timeout"` // seconds
}

// DatabaseConfig holds chat-history storage configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // SQLite data directory; empty disables history
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Corpus: CorpusConfig{
			Path: "data/agriculture_qna_expanded.csv",
			TopK: 8,
		},
		Gemini: GeminiConfig{
			Host:            "https://generativelanguage.googleapis.com",
			Model:           "gemini-2.0-flash-exp",
			Temperature:     0.35,
			MaxOutputTokens: 256,
			Timeout:         120,
		},
		Database: DatabaseConfig{
			Path: ".kuapa/data",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config in default locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".kuapa"))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variable overrides
	viper.SetEnvPrefix("KUAPA")
	viper.AutomaticEnv()

	// Bind environment variables
	viper.BindEnv("server.host", "KUAPA_SERVER_HOST")
	viper.BindEnv("server.port", "KUAPA_SERVER_PORT")
	viper.BindEnv("corpus.path", "KUAPA_CORPUS_PATH")
	viper.BindEnv("corpus.top_k", "KUAPA_CORPUS_TOP_K")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini.model", "GEMINI_MODEL")
	viper.BindEnv("gemini.temperature", "LLM_TEMPERATURE")
	viper.BindEnv("database.path", "KUAPA_DATABASE_PATH")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
