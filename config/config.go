package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"edu2job/profile"
)

type Config struct {
	ArtifactsDir  string                 `yaml:"artifacts_dir" toml:"artifacts_dir"`
	Artifacts     Artifacts              `yaml:"artifacts" toml:"artifacts"`
	DefaultRecord map[string]interface{} `yaml:"default_record" toml:"default_record"`
	TopK          int                    `yaml:"top_k" toml:"top_k"`
	S3            S3                     `yaml:"s3" toml:"s3"`
	Log           Log                    `yaml:"log" toml:"log"`
	History       History                `yaml:"history" toml:"history"`
}

type Artifacts struct {
	Vectorizer   string `yaml:"vectorizer" toml:"vectorizer"`
	Scaler       string `yaml:"scaler" toml:"scaler"`
	Model        string `yaml:"model" toml:"model"`
	LabelEncoder string `yaml:"label_encoder" toml:"label_encoder"`
}

type S3 struct {
	Region    string `yaml:"region" toml:"region"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	AccessKey string `yaml:"access_key" toml:"access_key"`
	SecretKey string `yaml:"secret_key" toml:"secret_key"`
}

type Log struct {
	Level      string `yaml:"level" toml:"level"`
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

type History struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

// Environment overrides, also read from a .env file when present.
const (
	EnvArtifactsDir  = "EDU2JOB_ARTIFACTS_DIR"
	EnvLogLevel      = "EDU2JOB_LOG_LEVEL"
	EnvHistoryDriver = "EDU2JOB_HISTORY_DRIVER"
	EnvHistoryDSN    = "EDU2JOB_HISTORY_DSN"
)

const DefaultFile = "config.yaml"

func Default() *Config {
	return &Config{
		ArtifactsDir: "artifacts",
		Artifacts: Artifacts{
			Vectorizer:   "vectorizer.json",
			Scaler:       "scaler.json",
			Model:        "job_role_model.json",
			LabelEncoder: "label_encoder.json",
		},
		DefaultRecord: profile.DefaultFields(),
		TopK:          3,
		Log: Log{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		History: History{Driver: "sqlite3"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path looks for config.yaml in the working directory and its
// parent and falls back to defaults when neither exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = findDefault()
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefault() string {
	for _, candidate := range []string{DefaultFile, filepath.Join("..", DefaultFile)} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fallback := cfg.DefaultRecord
	cfg.DefaultRecord = nil
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if cfg.DefaultRecord == nil {
		cfg.DefaultRecord = fallback
	}
	cfg.DefaultRecord = stringKeys(cfg.DefaultRecord)
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		c.ArtifactsDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvHistoryDriver); v != "" {
		c.History.Driver = v
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.History.DSN = v
	}
}

func (c *Config) Validate() error {
	if c.ArtifactsDir == "" {
		return errors.New("artifacts_dir is required")
	}
	if c.Artifacts.Vectorizer == "" || c.Artifacts.Scaler == "" ||
		c.Artifacts.Model == "" || c.Artifacts.LabelEncoder == "" {
		return errors.New("all four artifact file names are required")
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.History.DSN != "" {
		switch c.History.Driver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("unsupported history driver %q", c.History.Driver)
		}
	}
	return nil
}

// stringKeys converts nested yaml maps so the record can be re-encoded
// as JSON.
func stringKeys(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return out
	case map[string]interface{}:
		return stringKeys(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}
