package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keychainService = "lenslog"
	accountAPIToken = "api_token"
	apiTokenEnv     = "LENSLOG_API_TOKEN"
)

// ErrNoAPIToken is returned by LookupAPIToken when no gateway token exists yet.
var ErrNoAPIToken = errors.New("no API token configured: set " + apiTokenEnv + " or run `lenslog start` once to generate one")

// Keychain stores secrets outside the plain config file.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

// FileKeychain keeps secrets in a 0600 JSON file, grouped by service.
type FileKeychain struct {
	path string
}

// NewKeychain returns the keychain at $XDG_DATA_HOME/lenslog/secrets.json.
func NewKeychain() *FileKeychain {
	return NewFileKeychain(secretsFilePath())
}

// NewFileKeychain returns a keychain backed by the file at path.
func NewFileKeychain(path string) *FileKeychain {
	return &FileKeychain{path: path}
}

func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "lenslog", "secrets.json")
}

func (k *FileKeychain) read() (map[string]map[string]string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return nil, err
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (k *FileKeychain) Get(service, account string) (string, error) {
	secrets, err := k.read()
	if err != nil {
		return "", fmt.Errorf("keychain not available: %w", err)
	}
	svc, ok := secrets[service]
	if !ok {
		return "", fmt.Errorf("service %q not found", service)
	}
	val, ok := svc[account]
	if !ok {
		return "", fmt.Errorf("account %q not found in service %q", account, service)
	}
	return val, nil
}

func (k *FileKeychain) Set(service, account, value string) error {
	secrets, err := k.read()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(k.path, out, 0o600)
}

// LookupAPIToken returns the gateway bearer token from LENSLOG_API_TOKEN or the
// keychain, without creating one.
func LookupAPIToken(kc Keychain) (string, error) {
	if tok := strings.TrimSpace(os.Getenv(apiTokenEnv)); tok != "" {
		return tok, nil
	}
	if tok, err := kc.Get(keychainService, accountAPIToken); err == nil && tok != "" {
		return tok, nil
	}
	return "", ErrNoAPIToken
}

// GetAPIToken is LookupAPIToken that generates and stores a random token when
// none exists yet.
func GetAPIToken(kc Keychain) (string, error) {
	if tok, err := LookupAPIToken(kc); err == nil {
		return tok, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	tok := hex.EncodeToString(buf)
	if err := kc.Set(keychainService, accountAPIToken, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
