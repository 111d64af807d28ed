package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the merged shell configuration: file, then environment, then
// command-line flags, each overriding the last.
type Config struct {
	Engine      string `yaml:"engine"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"sslmode"`
	DSN         string `yaml:"dsn"`
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	LogFile     string `yaml:"log_file"`
	History     *bool  `yaml:"history"`
	Completion  *bool  `yaml:"completion"`
}

var defaultPorts = map[string]int{
	"mysql":    3306,
	"postgres": 5432,
}

// loadConfig reads a YAML config file. A missing file yields an empty
// config; an unreadable or malformed one is an error.
func loadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv overlays OXISQL_ENGINE and DATABASE_URL.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("OXISQL_ENGINE")); v != "" {
		c.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("DATABASE_URL")); v != "" {
		c.DSN = v
	}
}

// applyDefaults fills anything still unset and validates the engine.
func (c *Config) applyDefaults() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = "mysql"
	}
	if !isValidEngine(c.Engine) {
		return fmt.Errorf("unknown engine %q (want mysql, postgres or sqlite)", c.Engine)
	}
	if c.Port == 0 {
		c.Port = defaultPorts[c.Engine]
	}
	if c.Host == "" && c.Engine != "sqlite" {
		c.Host = "localhost"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.Prompt == "" {
		c.Prompt = "oxisql> "
	}
	if c.HistoryFile == "" {
		c.HistoryFile = defaultHistoryPath()
	}
	return nil
}

func (c *Config) historyEnabled() bool    { return c.History == nil || *c.History }
func (c *Config) completionEnabled() bool { return c.Completion == nil || *c.Completion }

// needsPassword reports whether the engine authenticates with a password.
func (c *Config) needsPassword() bool {
	return c.Engine != "sqlite" && c.DSN == "" && c.Password == ""
}

func isValidEngine(engine string) bool {
	switch engine {
	case "postgres", "mysql", "sqlite":
		return true
	}
	return false
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "oxisql", "config.yaml")
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "oxisql", "queries.trie.json")
}
