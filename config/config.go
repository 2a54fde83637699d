package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Data      DataConfig      `yaml:"data"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL         string        `yaml:"api_url"`
	APIKey         string        `yaml:"api_key"`
	Models         []string      `yaml:"models"` // ranked fallback list, first success wins
	MaxTokens      int           `yaml:"max_tokens"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type EmbeddingConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type DataConfig struct {
	Dir          string `yaml:"dir"`
	UploadDir    string `yaml:"upload_dir"`
	ReportDir    string `yaml:"report_dir"`
	RegistryPath string `yaml:"registry_path"`
	FeedbackPath string `yaml:"feedback_path"`
}

type AnalysisConfig struct {
	ChunkSize      int `yaml:"chunk_size"`       // words per chunk
	ChunkOverlap   int `yaml:"chunk_overlap"`    // overlapping words between chunks
	TopKPerTopic   int `yaml:"top_k_per_topic"`  // search hits kept per topic query
	TopKPerDomain  int `yaml:"top_k_per_domain"` // snippets kept per domain after dedupe
	WorkerPoolSize int `yaml:"worker_pool_size"` // concurrent domain analysis branches
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			APIURL: "https://api.openai.com/v1",
			Models: []string{
				"meta-llama/Llama-3.2-1B-Instruct",
				"google/gemma-2-2b-it",
				"mistralai/Mistral-7B-Instruct-v0.3",
			},
			MaxTokens:      1500,
			RequestTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			APIURL: "https://api.openai.com/v1",
			Model:  "text-embedding-3-small",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Analysis: AnalysisConfig{
			ChunkSize:      400,
			ChunkOverlap:   50,
			TopKPerTopic:   3,
			TopKPerDomain:  5,
			WorkerPoolSize: 5,
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// Environment variables override the config file.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if models := os.Getenv("LLM_MODELS"); models != "" {
		config.LLM.Models = splitModels(models)
	}
	if apiKey := os.Getenv("EMBEDDING_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if baseURL := os.Getenv("EMBEDDING_BASE_URL"); baseURL != "" {
		config.Embedding.APIURL = baseURL
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}

	// Embedding credentials fall back to the LLM ones; most deployments use
	// one OpenAI-compatible endpoint for both.
	if config.Embedding.APIKey == "" {
		config.Embedding.APIKey = config.LLM.APIKey
	}

	if config.Data.UploadDir == "" {
		config.Data.UploadDir = filepath.Join(config.Data.Dir, "uploads")
	}
	if config.Data.ReportDir == "" {
		config.Data.ReportDir = filepath.Join(config.Data.Dir, "reports")
	}
	if config.Data.RegistryPath == "" {
		config.Data.RegistryPath = filepath.Join(config.Data.Dir, "document_registry.json")
	}
	if config.Data.FeedbackPath == "" {
		config.Data.FeedbackPath = filepath.Join(config.Data.Dir, "feedback.json")
	}

	return config
}

func splitModels(s string) []string {
	parts := strings.Split(s, ",")
	models := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			models = append(models, p)
		}
	}
	return models
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func UpdateConfig(newCfg *Config) {
	cfg = newCfg
}
