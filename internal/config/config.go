package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AuthConfig holds the single shared credential pair for the dashboard.
// One pair per deployment; checked once per session at login.
type AuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the dashboard.
	Listen string `yaml:"listen" json:"listen"`

	// SourceURL is the remote location of the conference coverage
	// workbook; the refresh action downloads it to DataFile.
	SourceURL string `yaml:"source_url" json:"source_url"`

	// DataFile is the local snapshot of the workbook.
	DataFile string `yaml:"data_file" json:"data_file"`

	// PinnedFile is the JSON file persisting pinned conference keys.
	PinnedFile string `yaml:"pinned_file" json:"pinned_file"`

	// HeaderSheet names the workbook sheet that carries metadata rather
	// than conference rows; it is skipped when loading.
	HeaderSheet string `yaml:"header_sheet" json:"header_sheet"`

	// RefreshCron is a cron-style schedule (e.g. "0 6 * * *") for
	// re-downloading the workbook. Empty disables scheduled refresh;
	// the manual refresh endpoint is always available.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DefaultThreshold is the fuzzy-match threshold (0-100) used when a
	// request does not supply one. Lower means more permissive.
	DefaultThreshold int `yaml:"default_threshold" json:"default_threshold"`

	// Auth holds the login credentials. AUTH_USERNAME / AUTH_PASSWORD
	// environment variables override these at startup.
	Auth AuthConfig `yaml:"auth" json:"auth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		SourceURL:        "",
		DataFile:         "./data/conference_list.xlsx",
		PinnedFile:       "./data/pinned_conferences.json",
		HeaderSheet:      "Header",
		RefreshCron:      "",
		DefaultThreshold: 80,
		Auth: AuthConfig{
			Username: "admin",
			Password: "admin123",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataFile == "" {
		c.DataFile = "./data/conference_list.xlsx"
	}
	if c.PinnedFile == "" {
		c.PinnedFile = "./data/pinned_conferences.json"
	}
	if c.HeaderSheet == "" {
		c.HeaderSheet = "Header"
	}
	if c.DefaultThreshold <= 0 || c.DefaultThreshold > 100 {
		c.DefaultThreshold = 80
	}
	if c.Auth.Username == "" {
		c.Auth.Username = "admin"
	}
	if c.Auth.Password == "" {
		c.Auth.Password = "admin123"
	}
}

// ApplyEnv overrides credentials from the environment, if set. The caller
// is expected to have loaded any .env file beforehand.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("AUTH_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("AUTH_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed,
//     write a default config with 0600 perms, return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".confdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
