package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogosDir  string `toml:"logos_dir"`
	LogDir    string `toml:"log_dir"`
	DataDir   string `toml:"data_dir"`
}

// Drive contains configuration for the file-storage backend that holds
// template and logo assets.
type Drive struct {
	BaseURL           string `toml:"base_url"`
	AccessToken       string `toml:"access_token"`
	TemplatesFolderID string `toml:"templates_folder_id"`
	LogosFolderID     string `toml:"logos_folder_id"`
	RequestTimeout    int    `toml:"request_timeout"`
}

// Rows contains configuration for the campaign row source.
type Rows struct {
	Source        string `toml:"source"` // "sheet" or "csv"
	SpreadsheetID string `toml:"spreadsheet_id"`
	Range         string `toml:"range"`
	BaseURL       string `toml:"base_url"`
	AccessToken   string `toml:"access_token"`
	CSVPath       string `toml:"csv_path"`
}

// Ads contains configuration for the advertising platform API.
type Ads struct {
	BaseURL         string `toml:"base_url"`
	DeveloperToken  string `toml:"developer_token"`
	AccessToken     string `toml:"access_token"`
	LoginCustomerID string `toml:"login_customer_id"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// Limits contains the request-budget configuration.
type Limits struct {
	RequestCeiling  int `toml:"request_ceiling"`
	CooldownMinutes int `toml:"cooldown_minutes"`
}

// Creatives contains batch generation defaults.
type Creatives struct {
	DefaultQuantity int `toml:"default_quantity"`
}

// Webhook contains configuration for run notifications.
type Webhook struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for adforge.
//
// Configuration sections by subsystem:
//   - Paths: output, logo cache, log, and data directories
//   - Drive: template/logo store access
//   - Rows: campaign row source (spreadsheet or CSV)
//   - Ads: advertising platform credentials and endpoint
//   - Limits: request budget ceiling and cooldown
//   - Creatives: batch generation defaults
//   - Webhook: run notification endpoint
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Drive     Drive     `toml:"drive"`
	Rows      Rows      `toml:"rows"`
	Ads       Ads       `toml:"ads"`
	Limits    Limits    `toml:"limits"`
	Creatives Creatives `toml:"creatives"`
	Webhook   Webhook   `toml:"webhook"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/adforge/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to target.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ in user-supplied paths.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func decodeSample(cfg *Config) error {
	return toml.Unmarshal([]byte(sampleConfig), cfg)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("adforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogosDir, c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the sqlite database location for the upload ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath returns the lock file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "adforge.lock")
}

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.OutputDir, &c.Paths.LogosDir, &c.Paths.LogDir, &c.Paths.DataDir, &c.Rows.CSVPath,
	} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Rows.Source = strings.ToLower(strings.TrimSpace(c.Rows.Source))
	if c.Rows.Source == "" {
		c.Rows.Source = RowSourceSheet
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Limits.RequestCeiling <= 0 {
		c.Limits.RequestCeiling = defaultRequestCeiling
	}
	if c.Limits.CooldownMinutes <= 0 {
		c.Limits.CooldownMinutes = defaultCooldownMinutes
	}
	if c.Creatives.DefaultQuantity <= 0 {
		c.Creatives.DefaultQuantity = defaultCreativeQuantity
	}

	// Environment fallbacks for secrets that should stay out of the file.
	if c.Drive.AccessToken == "" {
		c.Drive.AccessToken = os.Getenv("ADFORGE_DRIVE_TOKEN")
	}
	if c.Rows.AccessToken == "" {
		c.Rows.AccessToken = os.Getenv("ADFORGE_SHEETS_TOKEN")
	}
	if c.Ads.AccessToken == "" {
		c.Ads.AccessToken = os.Getenv("ADFORGE_ADS_TOKEN")
	}
	if c.Ads.DeveloperToken == "" {
		c.Ads.DeveloperToken = os.Getenv("ADFORGE_ADS_DEVELOPER_TOKEN")
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
