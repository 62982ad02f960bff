package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
// Secrets are reported as set or unset, never by value.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		value := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			if value == "" {
				value = "(not set)"
			} else {
				value = "(set)"
			}
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  value,
		})
	}
	return result
}

// SetKey writes a config key to the config file.
func SetKey(key, value string) error {
	return setKey(newPlatformBackend(), key, value)
}

func setKey(b ConfigBackend, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return fmt.Errorf("cannot set secret %q via config; use environment variable %s or `lenslog config set-secret`", key, s.env)
		}
		switch s.typ {
		case kString:
			return b.SetString(key, value)
		case kInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			return b.SetInt(key, i)
		case kBool:
			bv, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid boolean value for %s: %w", key, err)
			}
			return b.SetString(key, strconv.FormatBool(bv))
		case kFloat:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid number value for %s: %w", key, err)
			}
			return b.SetString(key, strconv.FormatFloat(f, 'f', -1, 64))
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}

// SetSecret stores a secret config key in the keychain.
func SetSecret(kc Keychain, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if !s.secret {
			return fmt.Errorf("%q is not a secret; use `lenslog config set`", key)
		}
		return kc.Set(keychainService, s.account, value)
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// SecretKeys returns the names of keys stored in the keychain.
func SecretKeys() []string {
	var keys []string
	for _, s := range specs {
		if s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
