package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	account string // keychain account for secrets
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LENSLOG_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_enabled", typ: kBool, env: "LENSLOG_SERVER_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.MCPEnabled },
	},
	{
		key: "server.cors_origins", typ: kString, env: "LENSLOG_SERVER_CORS_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.CORSOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.CORSOrigins },
	},
	{
		key: "vision.provider", typ: kString, env: "LENSLOG_VISION_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Vision.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.Provider },
	},
	{
		key: "vision.base_url", typ: kString, env: "LENSLOG_VISION_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Vision.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.BaseURL },
	},
	{
		key: "vision.api_key", typ: kString, env: "LENSLOG_VISION_API_KEY",
		secret: true, account: "vision_api_key",
		apply:   func(cfg *Config, v any) { cfg.Vision.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.APIKey },
	},
	{
		key: "vision.food_model", typ: kString, env: "LENSLOG_VISION_FOOD_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Vision.FoodModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.FoodModel },
	},
	{
		key: "vision.homework_model", typ: kString, env: "LENSLOG_VISION_HOMEWORK_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Vision.HomeworkModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.HomeworkModel },
	},
	{
		key: "vision.food_max_tokens", typ: kInt, env: "LENSLOG_VISION_FOOD_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Vision.FoodMaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Vision.FoodMaxTokens },
	},
	{
		key: "vision.homework_max_tokens", typ: kInt, env: "LENSLOG_VISION_HOMEWORK_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Vision.HomeworkMaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Vision.HomeworkMaxTokens },
	},
	{
		key: "vision.temperature", typ: kFloat, env: "LENSLOG_VISION_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Vision.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Vision.Temperature },
	},
	{
		key: "vision.timeout", typ: kString, env: "LENSLOG_VISION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Vision.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.Timeout },
	},
	{
		key: "analysis.language", typ: kString, env: "LENSLOG_ANALYSIS_LANGUAGE",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Language = v.(string) },
		extract: func(cfg Config) any { return cfg.Analysis.Language },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LENSLOG_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "LENSLOG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// applySecrets fills secrets still empty after the env pass from the keychain.
func applySecrets(cfg *Config, kc Keychain) {
	for _, s := range specs {
		if !s.secret || s.account == "" {
			continue
		}
		if v, _ := s.extract(*cfg).(string); v != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.account); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}
