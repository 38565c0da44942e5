// Package config handles the XDG configuration directory and the config.toml file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"taskledger/internal/address"
	"taskledger/internal/identity"
)

const (
	// AppName is the application directory name.
	AppName = "taskledger"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Store backends.
const (
	StoreBolt   = "bolt"
	StoreMemory = "memory"
	StoreNATS   = "nats"
)

// Environment overrides.
const (
	EnvKeypair = "TASKLEDGER_KEYPAIR"
	EnvStore   = "TASKLEDGER_STORE"
	EnvNATSURL = "TASKLEDGER_NATS_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are loaded from config.toml, falling back to defaults.
	Settings Settings
}

// Settings is the content of config.toml.
type Settings struct {
	ProgramID string         `toml:"program_id"`
	Keypair   string         `toml:"keypair"`
	Store     StoreSettings  `toml:"store"`
	Log       LogSettings    `toml:"log"`
	Export    ExportSettings `toml:"export"`
}

// StoreSettings selects and configures the record store.
type StoreSettings struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	NATSURL string `toml:"nats_url"`
	Bucket  string `toml:"bucket"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ExportSettings configures the Google Tasks mirror.
type ExportSettings struct {
	List string `toml:"list"`
}

// DefaultSettings returns the settings used when config.toml is absent.
func DefaultSettings() Settings {
	return Settings{
		ProgramID: address.DefaultProgramID.String(),
		Keypair:   "id.json",
		Store: StoreSettings{
			Backend: StoreBolt,
			Path:    "ledger.db",
			NATSURL: "nats://127.0.0.1:4222",
			Bucket:  "taskledger",
		},
		Log:    LogSettings{Level: "info"},
		Export: ExportSettings{List: "taskledger"},
	}
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskledger or $HOME/.config/taskledger.
// A missing config.toml is not an error.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir, Settings: DefaultSettings()}

	md, err := toml.DecodeFile(cfg.ConfigPath(), &cfg.Settings)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("invalid %s: unknown key %s", ConfigFile, undecoded[0])
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvKeypair); v != "" {
		c.Settings.Keypair = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Settings.Store.Backend = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.Settings.Store.NATSURL = v
	}
}

func (c *Config) validate() error {
	switch c.Settings.Store.Backend {
	case StoreBolt, StoreMemory, StoreNATS:
	default:
		return fmt.Errorf("invalid store backend: %q", c.Settings.Store.Backend)
	}
	id, err := identity.Parse(c.Settings.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	if id.IsZero() {
		return fmt.Errorf("invalid program_id: %s is the zero identity", c.Settings.ProgramID)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ProgramID returns the configured program identity.
func (c *Config) ProgramID() identity.ID {
	// validated in New
	id, _ := identity.Parse(c.Settings.ProgramID)
	return id
}

// ConfigPath returns the path to config.toml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// KeypairPath returns the path to the owner keypair file.
func (c *Config) KeypairPath() string {
	return c.resolve(c.Settings.Keypair)
}

// StorePath returns the path to the bolt store file.
func (c *Config) StorePath() string {
	return c.resolve(c.Settings.Store.Path)
}

// LogFilePath returns the path to the JSON log file, or "" when disabled.
func (c *Config) LogFilePath() string {
	if c.Settings.Log.File == "" {
		return ""
	}
	return c.resolve(c.Settings.Log.File)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasKeypair checks if the keypair file exists.
func (c *Config) HasKeypair() bool {
	_, err := os.Stat(c.KeypairPath())
	return err == nil
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
