package config

const (
	defaultOutputDir        = "output"
	defaultLogosDir         = "logos"
	defaultLogDir           = "~/.local/share/adforge/logs"
	defaultDataDir          = "~/.local/share/adforge"
	defaultDriveBaseURL     = "https://www.googleapis.com/drive/v3"
	defaultDriveTimeout     = 60
	defaultSheetsBaseURL    = "https://sheets.googleapis.com/v4"
	defaultSheetRange       = "A:F"
	defaultAdsBaseURL       = "https://googleads.googleapis.com/v21"
	defaultAdsTimeout       = 60
	defaultWebhookTimeout   = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRequestCeiling   = 3000
	defaultCooldownMinutes  = 60
	defaultCreativeQuantity = 3

	// RowSourceSheet reads campaign rows from the configured spreadsheet.
	RowSourceSheet = "sheet"
	// RowSourceCSV reads campaign rows from a local CSV file.
	RowSourceCSV = "csv"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogosDir:  defaultLogosDir,
			LogDir:    defaultLogDir,
			DataDir:   defaultDataDir,
		},
		Drive: Drive{
			BaseURL:        defaultDriveBaseURL,
			RequestTimeout: defaultDriveTimeout,
		},
		Rows: Rows{
			Source:  RowSourceSheet,
			Range:   defaultSheetRange,
			BaseURL: defaultSheetsBaseURL,
		},
		Ads: Ads{
			BaseURL:        defaultAdsBaseURL,
			RequestTimeout: defaultAdsTimeout,
		},
		Limits: Limits{
			RequestCeiling:  defaultRequestCeiling,
			CooldownMinutes: defaultCooldownMinutes,
		},
		Creatives: Creatives{
			DefaultQuantity: defaultCreativeQuantity,
		},
		Webhook: Webhook{
			RequestTimeout: defaultWebhookTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
