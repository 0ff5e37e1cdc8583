package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	configDirName  = "coursehub"
	configFileName = "config.json"
)

// Selection is the gateway remembered for one project
type Selection struct {
	GatewayURL string    `json:"gateway_url"`
	SelectedAt time.Time `json:"selected_at"`
}

// UserConfig represents the user's local configuration stored in ~/.config/coursehub/config.json.
// Selections are keyed by the absolute path of the project's coursehub.yaml, so
// two checkouts can point at different gateways.
type UserConfig struct {
	Selections map[string]Selection `json:"selections,omitempty"`
}

// Store reads and writes the user config at a fixed path
type Store struct {
	path string
}

// NewStore creates a store backed by path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store under the user's home directory
func DefaultStore() (*Store, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Path returns the file the store reads and writes
func (s *Store) Path() string {
	return s.path
}

// Load reads the user configuration file
func (s *Store) Load() (*UserConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		// If config doesn't exist, return empty config
		if os.IsNotExist(err) {
			return &UserConfig{Selections: map[string]Selection{}}, nil
		}
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	if cfg.Selections == nil {
		cfg.Selections = map[string]Selection{}
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func (s *Store) Save(cfg *UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	// Write then rename so a crash never leaves a half-written file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// Selected returns the gateway URL remembered for project, or empty string
func (s *Store) Selected(project string) (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	return cfg.Selections[projectKey(project)].GatewayURL, nil
}

// Select remembers gatewayURL for project. An empty URL forgets the selection.
func (s *Store) Select(project, gatewayURL string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}

	key := projectKey(project)
	if gatewayURL == "" {
		if _, ok := cfg.Selections[key]; !ok {
			return nil
		}
		delete(cfg.Selections, key)
	} else {
		cfg.Selections[key] = Selection{GatewayURL: gatewayURL, SelectedAt: time.Now().UTC()}
	}
	return s.Save(cfg)
}

func projectKey(project string) string {
	if abs, err := filepath.Abs(project); err == nil {
		return abs
	}
	return filepath.Clean(project)
}
