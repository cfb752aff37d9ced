package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xhad/screener/pkg/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log logger.Config `yaml:"log"`

	Job struct {
		Description string `yaml:"description"`
		File        string `yaml:"file"`
		URL         string `yaml:"url"`
	} `yaml:"job"`

	Similarity struct {
		Backend string `yaml:"backend"` // tfidf or embedding
	} `yaml:"similarity"`

	LLM struct {
		BaseURL      string `yaml:"base_url"`
		Model        string `yaml:"model"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
	} `yaml:"llm"`

	Fetcher struct {
		RateLimit float64 `yaml:"rate_limit"`
		Timeout   int     `yaml:"timeout_seconds"`
		MaxBytes  int64   `yaml:"max_bytes"`
		UserAgent string  `yaml:"user_agent"`
	} `yaml:"fetcher"`

	Keywords struct {
		Stopwords []string `yaml:"stopwords"`
	} `yaml:"keywords"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		// Similar is how many stored results closest to the top resume to
		// list after a run is saved.
		Similar int `yaml:"similar"`
	} `yaml:"database"`

	UI struct {
		Output       string `yaml:"output"` // text or json
		Top          int    `yaml:"top"`
		Color        bool   `yaml:"color"`
		ShowEntities bool   `yaml:"show_entities"`
	} `yaml:"ui"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

const (
	BackendTFIDF     = "tfidf"
	BackendEmbedding = "embedding"
)

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"screener.yaml",
			"screener.yml",
			filepath.Join(os.Getenv("HOME"), ".config/screener/config.yaml"),
			"/etc/screener/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// ui.color and ui.show_entities default to true, so seed them before
	// unmarshalling to let an explicit false win.
	config := Config{}
	config.UI.Color = true
	config.UI.ShowEntities = true
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	config := &Config{}
	config.UI.Color = true
	config.UI.ShowEntities = true
	mergeWithEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "pretty"
	}

	if config.Similarity.Backend == "" {
		config.Similarity.Backend = BackendTFIDF
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "nomic-embed-text:latest"
	}
	if config.LLM.ChunkSize == 0 {
		config.LLM.ChunkSize = 1000
	}
	if config.LLM.ChunkOverlap == 0 {
		config.LLM.ChunkOverlap = 200
	}

	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 2.0
	}
	if config.Fetcher.Timeout == 0 {
		config.Fetcher.Timeout = 30
	}
	if config.Fetcher.MaxBytes == 0 {
		config.Fetcher.MaxBytes = 20 << 20
	}
	if config.Fetcher.UserAgent == "" {
		config.Fetcher.UserAgent = "screener/1.0"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "screening_results"
	}

	if config.UI.Output == "" {
		config.UI.Output = "text"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if level := os.Getenv("SCREENER_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
}
