package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opsguard/opsguard-seeder/internal/utils"
)

// Config captures the settings shared by the generator and ingester.
type Config struct {
	Elastic   ElasticConfig   `yaml:"elastic"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ElasticConfig locates and authenticates against the search backend.
type ElasticConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// IngestConfig controls provisioning and bulk loading.
type IngestConfig struct {
	DataDir     string        `yaml:"dataDir"`
	MappingsDir string        `yaml:"mappingsDir"`
	ChunkLines  int           `yaml:"chunkLines"`
	MaxAttempts int           `yaml:"maxAttempts"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
}

// GeneratorConfig controls scenario output.
type GeneratorConfig struct {
	OutputDir   string `yaml:"outputDir"`
	Bulk        bool   `yaml:"bulk"`
	DocumentIDs bool   `yaml:"documentIDs"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus textfile written at the end of a run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load initialises Config from an optional YAML file and environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("OPSGUARD_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.normalise()
	return &cfg, nil
}

// ValidateElastic reports missing backend credentials.
func (c *Config) ValidateElastic() error {
	var missing []string
	if strings.TrimSpace(c.Elastic.URL) == "" {
		missing = append(missing, "ES_URL")
	}
	if strings.TrimSpace(c.Elastic.APIKey) == "" {
		missing = append(missing, "ES_API_KEY")
	}
	if len(missing) > 0 {
		return utils.NewAppError("config", "backend credentials missing; set "+strings.Join(missing, " and ")+" or elastic.url/elastic.apiKey in the config file", nil)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Elastic: ElasticConfig{Timeout: 30 * time.Second},
		Ingest: IngestConfig{
			DataDir:     "generated-data",
			MappingsDir: "elastic/index-mappings",
			ChunkLines:  400,
			MaxAttempts: 3,
			RetryDelay:  2 * time.Second,
		},
		Generator: GeneratorConfig{
			OutputDir:   "./generated-data",
			DocumentIDs: true,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

// normalise keeps chunk sizes even so action and document lines stay paired.
func (c *Config) normalise() {
	if c.Ingest.ChunkLines < 2 {
		c.Ingest.ChunkLines = 2
	}
	c.Ingest.ChunkLines -= c.Ingest.ChunkLines % 2
	if c.Ingest.MaxAttempts < 1 {
		c.Ingest.MaxAttempts = 1
	}
	if c.Ingest.RetryDelay < 0 {
		c.Ingest.RetryDelay = 0
	}
	if c.Elastic.Timeout <= 0 {
		c.Elastic.Timeout = 30 * time.Second
	}
	c.Elastic.URL = strings.TrimRight(strings.TrimSpace(c.Elastic.URL), "/")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ES_URL"); v != "" {
		cfg.Elastic.URL = v
	}
	if v := os.Getenv("ES_API_KEY"); v != "" {
		cfg.Elastic.APIKey = v
	}
	if v := os.Getenv("OPSGUARD_ES_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Elastic.Timeout = d
		}
	}
	if v := os.Getenv("OPSGUARD_DATA_DIR"); v != "" {
		cfg.Ingest.DataDir = v
	}
	if v := os.Getenv("OPSGUARD_MAPPINGS_DIR"); v != "" {
		cfg.Ingest.MappingsDir = v
	}
	if v := os.Getenv("OPSGUARD_CHUNK_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.ChunkLines = n
		}
	}
	if v := os.Getenv("OPSGUARD_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxAttempts = n
		}
	}
	if v := os.Getenv("OPSGUARD_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Ingest.RetryDelay = d
		}
	}
	if v := os.Getenv("OPSGUARD_OUTPUT_DIR"); v != "" {
		cfg.Generator.OutputDir = v
	}
	if v := os.Getenv("OPSGUARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPSGUARD_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("OPSGUARD_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}
