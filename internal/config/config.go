package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for tat, stored in ~/.tat/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// DataDir is where daily event files are kept. Empty = ~/.tat.
	DataDir string        `json:"data_dir" mapstructure:"data_dir"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Outlook OutlookConfig `json:"outlook" mapstructure:"outlook"`
}

// LogConfig controls diagnostics written to stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" mapstructure:"level"`
	// Format is "text" or "json".
	Format string `json:"format" mapstructure:"format"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id" mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id" mapstructure:"client_id"`
	// DefaultProject is the project name assigned to imported Outlook events.
	DefaultProject string `json:"default_project" mapstructure:"default_project"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultProject is the project name used when none is specified.
	DefaultProject = "Meetings"
	// DefaultLogLevel shows normalisation warnings and errors only.
	DefaultLogLevel = "warn"
	// DefaultLogFormat is human-readable text on stderr.
	DefaultLogFormat = "text"

	// EnvPrefix prefixes environment overrides, e.g. TAT_LOG_LEVEL.
	EnvPrefix = "TAT"
	// EnvConfigPath selects an alternative config file.
	EnvConfigPath = "TAT_CONFIG"
)

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// tat configuration – ~/.tat/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Every key can also be set from the environment, e.g.
// TAT_LOG_LEVEL=debug or TAT_OUTLOOK_TENANT_ID=<guid>.
{
  // Directory holding the daily event files. Empty = ~/.tat
  "data_dir": "",

  // ── Diagnostics (stderr) ─────────────────────────────────────────────────
  "log": {
    // debug, info, warn or error. Timestamps without a timezone and events
    // without a timestamp are reported at warn.
    "level": "warn",
    // text or json
    "format": "text"
  },

  // ── Microsoft Graph / Outlook calendar sync ──────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // Default project name assigned to imported Outlook calendar events.
    // Can be overridden per-sync with: tat outlook sync --project <name>
    "default_project": "Meetings",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Berlin".
    // Leave empty to use UTC. Can be overridden with: tat outlook sync --timezone <tz>
    "timezone": ""
  }
}
`

// HomeDir returns ~/.tat.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tat"), nil
}

// FilePath returns $TAT_CONFIG or ~/.tat/config.json.
func FilePath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("outlook.tenant_id", DefaultTenantID)
	v.SetDefault("outlook.client_id", DefaultClientID)
	v.SetDefault("outlook.default_project", DefaultProject)
	v.SetDefault("outlook.timezone", "")
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file at FilePath. See LoadFrom.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path, creating it with annotated defaults on first run.
// Lines starting with // are treated as comments and stripped before JSON
// parsing; TAT_* environment variables override file values.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		data = []byte(configTemplate)
	} else if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(stripLineComments(data))); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user blanks out a value.
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Outlook.DefaultProject == "" {
		cfg.Outlook.DefaultProject = DefaultProject
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.DataDir == "" {
		dir, err := HomeDir()
		if err != nil {
			return cfg, err
		}
		cfg.DataDir = dir
	}

	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
