// Package config provides configuration helpers for pathsight commands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Env var names recognised by the commands.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvLogLevel     = "PATHSIGHT_LOG_LEVEL"
	EnvDashboard    = "PATHSIGHT_DASHBOARD_PORT"
	EnvPollInterval = "PATHSIGHT_POLL_INTERVAL"
)

// Getenv returns the env var value or the fallback if unset.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetenvDuration parses a duration env var, falling back on error.
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// credential is the on-disk shape of the persisted API credential.
type credential struct {
	APIKey  string `json:"api_key"`
	SavedAt string `json:"saved_at,omitempty"`
}

// CredentialStore persists an API key to a local JSON file. It is the
// fallback when no key is configured via flag or environment.
type CredentialStore struct {
	FilePath string
}

// DefaultCredentialPath returns the default credential file location
// (~/.pathsight/credentials.json).
func DefaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pathsight", "credentials.json")
}

// NewCredentialStore creates a store backed by the given file path.
// An empty path yields a store that loads and saves nothing.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{FilePath: path}
}

// Load reads the persisted API key. A missing file is not an error;
// it returns an empty key.
func (s *CredentialStore) Load() (string, error) {
	if s.FilePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var cred credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	return cred.APIKey, nil
}

// Save writes the API key to disk, creating the directory if needed.
func (s *CredentialStore) Save(apiKey string) error {
	if s.FilePath == "" {
		return nil
	}
	dir := filepath.Dir(s.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(credential{
		APIKey:  apiKey,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.FilePath, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the first non-empty key from: explicit value,
// environment, persisted credential file.
func ResolveAPIKey(explicit string, store *CredentialStore) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	if store == nil {
		return "", nil
	}
	return store.Load()
}
