package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "coursehub.yaml"

// Gateway is one CourseHub API gateway a project can talk to
type Gateway struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}

// Config represents the project configuration file
type Config struct {
	Gateways []Gateway `yaml:"gateways"`
}

// Validate checks that every gateway has an alias and an absolute http(s) URL
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Gateways))
	for i, gw := range c.Gateways {
		if gw.Alias == "" {
			return fmt.Errorf("gateway #%d has no alias", i+1)
		}
		if seen[gw.Alias] {
			return fmt.Errorf("duplicate gateway alias '%s'", gw.Alias)
		}
		seen[gw.Alias] = true

		u, err := url.Parse(gw.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("gateway '%s' has an invalid URL '%s'", gw.Alias, gw.URL)
		}
	}
	return nil
}

// DefaultConfig returns a configuration pointing at a local dev gateway
func DefaultConfig() *Config {
	return &Config{
		Gateways: []Gateway{
			{Alias: "local", URL: "http://localhost:8080"},
		},
	}
}

// FindConfigFile searches for coursehub.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return FindConfigFileFrom(currentDir)
}

// FindConfigFileFrom searches for coursehub.yaml in start and its parents
func FindConfigFileFrom(start string) (string, error) {
	dir := start
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, start)
}

// Load reads and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Gateways {
		cfg.Gateways[i].URL = strings.TrimRight(cfg.Gateways[i].URL, "/")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetGatewayByAlias returns a gateway by its alias
func (c *Config) GetGatewayByAlias(alias string) (*Gateway, error) {
	for i := range c.Gateways {
		if c.Gateways[i].Alias == alias {
			return &c.Gateways[i], nil
		}
	}
	return nil, fmt.Errorf("gateway with alias '%s' not found", alias)
}

// GetDefaultGateway returns the first gateway in the list
func (c *Config) GetDefaultGateway() (*Gateway, error) {
	if len(c.Gateways) == 0 {
		return nil, fmt.Errorf("no gateways configured in %s", ConfigFileName)
	}
	return &c.Gateways[0], nil
}
