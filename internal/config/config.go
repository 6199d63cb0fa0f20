package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Mentat.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Providers map[string]ProviderConfig `json:"providers"`
	Channels  ChannelsConfig            `json:"channels"`
	Memory    MemoryConfig              `json:"memory"`
	Tools     ToolsConfig               `json:"tools"`
	Persona   PersonaConfig             `json:"persona"`
}

type GeneralConfig struct {
	Workspace        string  `json:"workspace"`
	ProjectPath      string  `json:"projectPath,omitempty"` // optional project root exposed to tools
	LogLevel         string  `json:"logLevel"`
	MaxContinuations int     `json:"maxContinuations"` // cap on consecutive all-success auto-continuations
	DefaultProvider  string  `json:"defaultProvider"`
	Model            string  `json:"model,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"maxTokens,omitempty"`
	HistoryLimit     int     `json:"historyLimit,omitempty"`
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

type ChannelsConfig struct {
	CLI       CLIChannelConfig `json:"cli"`
	WebSocket WebSocketConfig  `json:"websocket"`
	Telegram  TelegramConfig   `json:"telegram"`
}

type CLIChannelConfig struct {
	Enabled     bool `json:"enabled"`
	ShowResults bool `json:"showResults"` // expand collapsed tool messages inline
}

type WebSocketConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	ParseMode string   `json:"parseMode"`
}

type MemoryConfig struct {
	DBPath       string `json:"dbPath"`
	ContextLimit int    `json:"contextLimit"` // max long-term entries rendered into the prompt
}

type ToolsConfig struct {
	Shell   ShellToolConfig   `json:"shell"`
	WebPage WebPageToolConfig `json:"webPage"`
}

type ShellToolConfig struct {
	Timeout        int `json:"timeout"` // seconds
	MaxOutputBytes int `json:"maxOutputBytes"`
}

type WebPageToolConfig struct {
	Enabled bool `json:"enabled"`
	Timeout int  `json:"timeout"` // seconds
}

type PersonaConfig struct {
	Dir    string `json:"dir,omitempty"`    // directory of persona YAML files
	Active string `json:"active,omitempty"` // persona name to apply
}

// DefaultConfigDir returns the default config directory (~/.mentat).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mentat"
	}
	return filepath.Join(home, ".mentat")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = ExpandPath(cfg.General.Workspace)
	cfg.General.ProjectPath = ExpandPath(cfg.General.ProjectPath)
	cfg.Memory.DBPath = ExpandPath(cfg.Memory.DBPath)
	cfg.Persona.Dir = ExpandPath(cfg.Persona.Dir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.General.MaxContinuations < 1 || cfg.General.MaxContinuations > 100 {
		errs = append(errs, "general.maxContinuations must be between 1 and 100")
	}
	if cfg.General.HistoryLimit < 1 {
		errs = append(errs, "general.historyLimit must be >= 1")
	}
	if cfg.Channels.WebSocket.Port < 0 || cfg.Channels.WebSocket.Port > 65535 {
		errs = append(errs, "channels.websocket.port must be between 0 and 65535")
	}
	if cfg.Memory.ContextLimit < 1 {
		errs = append(errs, "memory.contextLimit must be >= 1")
	}
	if cfg.Tools.Shell.Timeout < 1 {
		errs = append(errs, "tools.shell.timeout must be >= 1")
	}

	for name, pc := range cfg.Providers {
		if pc.Enabled && pc.APIBase == "" && name != "ollama" {
			errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
