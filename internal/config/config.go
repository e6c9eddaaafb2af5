package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable with "store".
const (
	StoreAPI   = "api"
	StoreFile  = "file"
	StoreMongo = "mongo"
	StoreMySQL = "mysql"
)

// Config is the root configuration for shiftpay, stored in ~/.shiftpay/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// Store selects the time-entry backend: api, file, mongo or mysql.
	Store string `json:"store"`

	// Timezone is the IANA zone used to read dates and clock times. Empty = UTC.
	Timezone string `json:"timezone"`

	// ExportDir receives generated documents. Empty = ~/.shiftpay/exports.
	ExportDir string `json:"export_dir"`

	API      APIConfig      `json:"api"`
	Mongo    MongoConfig    `json:"mongo"`
	MySQL    MySQLConfig    `json:"mysql"`
	Sheets   SheetsConfig   `json:"sheets"`
	Server   ServerConfig   `json:"server"`
	Schedule ScheduleConfig `json:"schedule"`
}

// APIConfig holds the remote time-entry API settings.
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type MongoConfig struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

type MySQLConfig struct {
	DSN string `json:"dsn"`
}

// SheetsConfig enables the Google Sheets export when both fields are set.
type SheetsConfig struct {
	CredentialsPath string `json:"credentials_path"`
	SpreadsheetID   string `json:"spreadsheet_id"`
	Range           string `json:"range"`
}

type ServerConfig struct {
	Port string `json:"port"`
}

// ScheduleConfig drives the weekly export of `shiftpay serve`.
type ScheduleConfig struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron"`
	Format  string `json:"format"`
}

const (
	DefaultStore           = StoreFile
	DefaultAPIBaseURL      = "http://localhost:3000"
	DefaultAPITimeout      = 30
	DefaultMongoDatabase   = "shiftpay"
	DefaultMongoCollection = "time_entries"
	DefaultSheetsRange     = "Registros!A1"
	DefaultPort            = "8080"
	DefaultFormat          = "xlsx"

	// DefaultCron runs every Friday at 20:00.
	DefaultCron = "0 20 * * 5"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	var cfg Config
	fillDefaults(&cfg)
	return cfg
}

func fillDefaults(cfg *Config) {
	if cfg.Store == "" {
		cfg.Store = DefaultStore
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = DefaultAPITimeout
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = DefaultMongoDatabase
	}
	if cfg.Mongo.Collection == "" {
		cfg.Mongo.Collection = DefaultMongoCollection
	}
	if cfg.Sheets.Range == "" {
		cfg.Sheets.Range = DefaultSheetsRange
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultCron
	}
	if cfg.Schedule.Format == "" {
		cfg.Schedule.Format = DefaultFormat
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// shiftpay configuration - ~/.shiftpay/config.json
//
// Secrets can be kept out of this file: values from the environment (or a
// .env file in the working directory) override the ones below.
{
  // Where time entries live: "file" (local JSON day files), "api" (remote
  // time-entry API), "mongo" or "mysql".
  // Env: SHIFTPAY_STORE
  "store": "file",

  // IANA timezone used to read dates and clock times, e.g. "America/Sao_Paulo".
  // Leave empty to use UTC. Env: TIMEZONE
  "timezone": "",

  // Directory for exported documents. Empty = ~/.shiftpay/exports
  "export_dir": "",

  "api": {
    // Env: SHIFTPAY_API_URL, SHIFTPAY_API_TOKEN
    "base_url": "http://localhost:3000",
    "token": "",
    "timeout_seconds": 30
  },

  "mongo": {
    // Env: MONGODB_URI
    "uri": "",
    "database": "shiftpay",
    "collection": "time_entries"
  },

  "mysql": {
    // e.g. "user:pass@tcp(127.0.0.1:3306)/shiftpay?charset=utf8mb4&parseTime=True&loc=UTC"
    // Env: MYSQL_DSN
    "dsn": ""
  },

  // Google Sheets export. Env: GOOGLE_SHEETS_CREDENTIALS_PATH, GOOGLE_SHEET_ID
  "sheets": {
    "credentials_path": "",
    "spreadsheet_id": "",
    "range": "Registros!A1"
  },

  // HTTP API of 'shiftpay serve'. Env: APP_PORT
  "server": {
    "port": "8080"
  },

  // Weekly export of the past week while 'shiftpay serve' runs.
  // Env: REPORT_CRON_SCHEDULE
  "schedule": {
    "enabled": false,
    "cron": "0 20 * * 5",
    "format": "xlsx"
  }
}
`

// DataDir returns ~/.shiftpay.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".shiftpay"), nil
}

// configFilePath returns the path to ~/.shiftpay/config.json.
func configFilePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
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

// Load reads ~/.shiftpay/config.json, creating it with annotated defaults on
// first run, then applies .env and environment overrides.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit config path.
func LoadFrom(path string) (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg := defaultConfig()
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	applyEnv(&cfg)
	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	fillDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Store, "SHIFTPAY_STORE")
	setFromEnv(&cfg.Timezone, "TIMEZONE")
	setFromEnv(&cfg.API.BaseURL, "SHIFTPAY_API_URL")
	setFromEnv(&cfg.API.Token, "SHIFTPAY_API_TOKEN")
	setFromEnv(&cfg.Mongo.URI, "MONGODB_URI")
	setFromEnv(&cfg.MySQL.DSN, "MYSQL_DSN")
	setFromEnv(&cfg.Sheets.CredentialsPath, "GOOGLE_SHEETS_CREDENTIALS_PATH")
	setFromEnv(&cfg.Sheets.SpreadsheetID, "GOOGLE_SHEET_ID")
	setFromEnv(&cfg.Server.Port, "APP_PORT")
	setFromEnv(&cfg.Schedule.Cron, "REPORT_CRON_SCHEDULE")
	if v, ok := os.LookupEnv("REPORT_SCHEDULE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.Enabled = b
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile:
	case StoreAPI:
		if c.API.BaseURL == "" {
			return errors.New("api store requires api.base_url (SHIFTPAY_API_URL)")
		}
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo store requires mongo.uri (MONGODB_URI)")
		}
	case StoreMySQL:
		if c.MySQL.DSN == "" {
			return errors.New("mysql store requires mysql.dsn (MYSQL_DSN)")
		}
	default:
		return fmt.Errorf("unknown store %q (want api, file, mongo or mysql)", c.Store)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// SheetsEnabled reports whether a Google Sheets export target is configured.
func (c Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

// Location resolves Timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// APITimeout returns the API timeout as a duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ExportDirectory resolves ExportDir, defaulting to ~/.shiftpay/exports.
func (c Config) ExportDirectory() (string, error) {
	if c.ExportDir != "" {
		return c.ExportDir, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
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
