package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for pubops.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Database DatabaseConfig `json:"database"`
	Dispatch DispatchConfig `json:"dispatch"`
	Validate ValidateConfig `json:"validate"`
	Audit    AuditConfig    `json:"audit"`
	Notify   NotifyConfig   `json:"notify"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
	ToolsDir string `json:"toolsDir"`          // directory of user YAML tool definitions
}

// DatabaseConfig locates the publisher database. pubops never opens this
// file itself; the path is handed to the downstream tools as an argument.
type DatabaseConfig struct {
	Path string `json:"path"`
}

type DispatchConfig struct {
	Interpreter    string `json:"interpreter"` // interpreter for downstream scripts
	ScriptDir      string `json:"scriptDir"`   // where the downstream tools live; "" = current directory
	TimeoutSeconds int    `json:"timeoutSeconds"`
	MaxOutputBytes int    `json:"maxOutputBytes"`
}

type ValidateConfig struct {
	TimeoutSeconds int           `json:"timeoutSeconds"` // per-check upper bound
	Checks         []CheckConfig `json:"checks,omitempty"`
}

// CheckConfig is one smoke-test entry. An empty Checks list in the config
// falls back to the built-in sequence covering every registered tool.
type CheckConfig struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig configures the validation failure alert channel.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chatId"`
}

// DefaultConfigDir returns the default config directory (~/.pubops).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pubops"
	}
	return filepath.Join(home, ".pubops")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.General.ToolsDir = ExpandPath(cfg.General.ToolsDir)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Dispatch.ScriptDir = ExpandPath(cfg.Dispatch.ScriptDir)

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
		// ${VAR:-} is a valid empty default, so detect the separator
		// itself rather than a non-empty capture.
		hasDefault := strings.Contains(match, ":-")
		if hasDefault && len(groups) >= 3 {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
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

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Database.Path == "" {
		errs = append(errs, "database.path must not be empty")
	}

	if cfg.Dispatch.Interpreter == "" {
		errs = append(errs, "dispatch.interpreter must not be empty")
	}
	if cfg.Dispatch.TimeoutSeconds < 1 {
		errs = append(errs, "dispatch.timeoutSeconds must be >= 1")
	}
	if cfg.Dispatch.MaxOutputBytes < 0 {
		errs = append(errs, "dispatch.maxOutputBytes must be >= 0")
	}

	if cfg.Validate.TimeoutSeconds < 1 {
		errs = append(errs, "validate.timeoutSeconds must be >= 1")
	}
	for i, check := range cfg.Validate.Checks {
		if check.Name == "" {
			errs = append(errs, fmt.Sprintf("validate.checks[%d]: name must not be empty", i))
		}
		if strings.TrimSpace(check.Command) == "" {
			errs = append(errs, fmt.Sprintf("validate.checks[%d]: command must not be empty", i))
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}

	if cfg.Notify.Telegram.Enabled {
		if cfg.Notify.Telegram.Token == "" {
			errs = append(errs, "notify.telegram.token is required when telegram is enabled")
		}
		if cfg.Notify.Telegram.ChatID == "" {
			errs = append(errs, "notify.telegram.chatId is required when telegram is enabled")
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
