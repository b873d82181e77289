package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"airport-weather-map/internal/lookup"
)

// Table sources
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Tables    TablesConfig
	Artifacts ArtifactsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string
}

// TablesConfig says where the lookup tables come from
type TablesConfig struct {
	Source string
	Dir    string
	Format string
}

// ArtifactsConfig controls the rendered map files
type ArtifactsConfig struct {
	OutputDir        string
	Ext              string
	TopK             int
	Zoom             int
	TileURL          string
	TileAttribution  string
	ClimatologyLabel string
	MiniMap          bool
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            p.getInt("SERVER_PORT", 8080),
			ReadTimeout:     p.getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    p.getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     p.getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: p.getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            p.getInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "airport_weather"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    p.getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: p.getDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Tables: TablesConfig{
			Source: strings.ToLower(getEnv("TABLES_SOURCE", SourceFile)),
			Dir:    getEnv("TABLES_DIR", "data"),
			Format: strings.ToLower(getEnv("TABLES_FORMAT", lookup.FormatCSV)),
		},
		Artifacts: ArtifactsConfig{
			OutputDir:        getEnv("ARTIFACTS_DIR", "assets"),
			Ext:              strings.TrimPrefix(getEnv("ARTIFACTS_EXT", "html"), "."),
			TopK:             p.getInt("MAP_TOP_K", 5),
			Zoom:             p.getInt("MAP_ZOOM", 10),
			TileURL:          getEnv("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
			TileAttribution:  getEnv("MAP_TILE_ATTRIBUTION", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`),
			ClimatologyLabel: getEnv("MAP_CLIMATOLOGY_LABEL", "Monthly Low Temps 2016-2020"),
			MiniMap:          p.getBool("MAP_MINIMAP", true),
		},
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values LoadConfig could parse but not judge
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT %d out of range", c.Database.Port))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal", c.Logging.Level))
	}

	switch c.Tables.Source {
	case SourceFile:
		if c.Tables.Dir == "" {
			errs = append(errs, errors.New("TABLES_DIR is required when TABLES_SOURCE=file"))
		}
		switch c.Tables.Format {
		case lookup.FormatCSV, lookup.FormatCSVGzip, lookup.FormatParquet:
		default:
			errs = append(errs, fmt.Errorf("TABLES_FORMAT %q is not one of csv, csv.gz, parquet", c.Tables.Format))
		}
	case SourcePostgres, SourceNone:
	default:
		errs = append(errs, fmt.Errorf("TABLES_SOURCE %q is not one of file, postgres, none", c.Tables.Source))
	}

	if c.Artifacts.OutputDir == "" {
		errs = append(errs, errors.New("ARTIFACTS_DIR is required"))
	}
	if c.Artifacts.Ext == "" || strings.ContainsAny(c.Artifacts.Ext, `/\`) {
		errs = append(errs, fmt.Errorf("ARTIFACTS_EXT %q is not a usable file extension", c.Artifacts.Ext))
	}
	if c.Artifacts.TopK <= 0 {
		errs = append(errs, fmt.Errorf("MAP_TOP_K must be positive, got %d", c.Artifacts.TopK))
	}
	if c.Artifacts.Zoom <= 0 || c.Artifacts.Zoom > 20 {
		errs = append(errs, fmt.Errorf("MAP_ZOOM %d out of range", c.Artifacts.Zoom))
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parser collects conversion errors so LoadConfig reports them all at once
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return defaultValue
	}
	return v
}
