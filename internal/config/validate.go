package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Validation failures are
// fatal: the run aborts before any row is processed.
func (c *Config) Validate() error {
	if err := c.validateDrive(); err != nil {
		return err
	}
	if err := c.validateRows(); err != nil {
		return err
	}
	if err := c.validateAds(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDrive() error {
	if strings.TrimSpace(c.Drive.TemplatesFolderID) == "" {
		return errors.New("drive.templates_folder_id must be set (the folder that holds per-locale template folders)")
	}
	if strings.TrimSpace(c.Drive.LogosFolderID) == "" {
		return errors.New("drive.logos_folder_id must be set (the folder that holds <site>.png logos)")
	}
	if strings.TrimSpace(c.Drive.AccessToken) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/adforge/config.toml"
		}
		return fmt.Errorf("drive.access_token is required. Set ADFORGE_DRIVE_TOKEN env var or edit %s (create with 'adforge config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateRows() error {
	switch c.Rows.Source {
	case RowSourceSheet:
		if strings.TrimSpace(c.Rows.SpreadsheetID) == "" {
			return errors.New("rows.spreadsheet_id must be set when rows.source is \"sheet\"")
		}
		if strings.TrimSpace(c.Rows.AccessToken) == "" {
			return errors.New("rows.access_token is required for the sheet source. Set ADFORGE_SHEETS_TOKEN env var or edit the config file")
		}
	case RowSourceCSV:
		if strings.TrimSpace(c.Rows.CSVPath) == "" {
			return errors.New("rows.csv_path must be set when rows.source is \"csv\"")
		}
	default:
		return fmt.Errorf("rows.source must be %q or %q, got %q", RowSourceSheet, RowSourceCSV, c.Rows.Source)
	}
	return nil
}

func (c *Config) validateAds() error {
	if strings.TrimSpace(c.Ads.DeveloperToken) == "" {
		return errors.New("ads.developer_token is required. Set ADFORGE_ADS_DEVELOPER_TOKEN env var or edit the config file")
	}
	if strings.TrimSpace(c.Ads.AccessToken) == "" {
		return errors.New("ads.access_token is required. Set ADFORGE_ADS_TOKEN env var or edit the config file")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
