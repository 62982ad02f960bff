// Package config loads lenslog settings from defaults, a JSON config file,
// LENSLOG_* environment variables, and the secrets file, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kalambet/lenslog/internal/vision"
)

type Config struct {
	Server   ServerConfig
	Vision   VisionConfig
	Analysis AnalysisConfig
	Storage  StorageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        int
	MCPEnabled  bool
	CORSOrigins string
}

type VisionConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	FoodModel         string
	HomeworkModel     string
	FoodMaxTokens     int
	HomeworkMaxTokens int
	Temperature       float64
	Timeout           string
}

type AnalysisConfig struct {
	Language string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

const defaultVisionTimeout = 60 * time.Second

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        4100,
			MCPEnabled:  true,
			CORSOrigins: "*",
		},
		Vision: VisionConfig{
			Provider:          "openai",
			FoodMaxTokens:     300,
			HomeworkMaxTokens: 2000,
			Temperature:       0.1,
			Timeout:           defaultVisionTimeout.String(),
		},
		Analysis: AnalysisConfig{
			Language: "English",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/lenslog/config.json, environment variables, and the secrets
// file. Environment variables (LENSLOG_*) override file values.
//
// A missing vision API key is not an error here: the ollama provider needs
// none, and the others report it per request.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), NewKeychain())
}

func loadFromPath(path string, kc Keychain) (Config, error) {
	return loadWith(newFileBackend(path), kc)
}

func loadWith(b ConfigBackend, kc Keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)
	applyModelDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyModelDefaults fills unset models with the defaults of the chosen
// provider, so switching providers does not keep another vendor's model ids.
func applyModelDefaults(cfg *Config) {
	food, homework := vision.DefaultModels(cfg.Vision.Provider)
	if cfg.Vision.FoodModel == "" {
		cfg.Vision.FoodModel = food
	}
	if cfg.Vision.HomeworkModel == "" {
		cfg.Vision.HomeworkModel = homework
	}
}

func validate(cfg Config) error {
	switch cfg.Vision.Provider {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("invalid vision.provider %q: want openai, anthropic, or ollama", cfg.Vision.Provider)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	return nil
}

// TimeoutDuration parses Timeout, falling back to 60s when it is unset or invalid.
func (v VisionConfig) TimeoutDuration() time.Duration {
	if v.Timeout == "" {
		return defaultVisionTimeout
	}
	d, err := time.ParseDuration(v.Timeout)
	if err != nil || d <= 0 {
		fmt.Fprintf(os.Stderr, "[WARN] invalid vision.timeout %q, using %s\n", v.Timeout, defaultVisionTimeout)
		return defaultVisionTimeout
	}
	return d
}

// CORSOriginList splits the comma-separated origin setting.
func (s ServerConfig) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
