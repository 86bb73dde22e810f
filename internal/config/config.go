package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/phishdrill/internal/behavior"
	"github.com/harrison/phishdrill/internal/query"
	"github.com/harrison/phishdrill/internal/simulation"
	"gopkg.in/yaml.v3"
)

// Report formats
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Canonical report output columns, in print order.
var (
	UserReportColumns = []string{"user_id", "name", "type", "successes", "fails", "misses"}
	DateReportColumns = []string{"date", "successes", "fails", "misses"}
)

var validFormats = map[string]bool{
	FormatCSV:      true,
	FormatJSON:     true,
	FormatMarkdown: true,
	FormatHTML:     true,
}

// StoreConfig selects where results are persisted
type StoreConfig struct {
	// Driver is sqlite or postgres
	Driver string `yaml:"driver"`

	// DBPath is the SQLite database file
	DBPath string `yaml:"db_path"`

	// DSN is the PostgreSQL connection string
	DSN string `yaml:"dsn"`
}

// Config represents phishdrill configuration options
type Config struct {
	// Users is the number of simulated users
	Users int `yaml:"users"`

	// Simulations is the number of training exercises per user
	Simulations int `yaml:"simulations"`

	// TrainingIntervalDays is the number of days between exercises
	TrainingIntervalDays int `yaml:"training_interval_days"`

	// Seed makes a run reproducible (0 = derive from the clock)
	Seed uint64 `yaml:"seed"`

	// Table is the destination table for results
	Table string `yaml:"table"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`

	// OutputDir is the directory where report exports are written
	OutputDir string `yaml:"output_dir"`

	// Formats lists the export formats (csv, json, markdown, html)
	Formats []string `yaml:"formats"`

	// Distribution maps archetype labels to relative population weights
	Distribution map[string]int `yaml:"distribution"`

	// Profiles overrides built-in outcome weights per archetype label
	Profiles map[string]behavior.Weights `yaml:"profiles"`

	// Store contains persistence configuration
	Store StoreConfig `yaml:"store"`
}

// DefaultConfig returns a Config rooted at .phishdrill in the working directory
func DefaultConfig() *Config {
	return DefaultConfigAt(DirName)
}

// DefaultConfigAt returns a Config whose paths live under home
func DefaultConfigAt(home string) *Config {
	dist := make(map[string]int)
	for _, s := range simulation.DefaultDistribution() {
		dist[string(s.Archetype)] = s.Weight
	}
	return &Config{
		Users:                100,
		Simulations:          12,
		TrainingIntervalDays: 7, // Weekly
		Seed:                 0,
		Table:                "training_result",
		LogLevel:             "info",
		LogDir:               filepath.Join(home, "logs"),
		OutputDir:            filepath.Join(home, "reports"),
		Formats:              []string{FormatCSV},
		Distribution:         dist,
		Store: StoreConfig{
			Driver: DriverSQLite,
			DBPath: filepath.Join(home, "phishdrill.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	return loadInto(DefaultConfig(), path)
}

// LoadConfigFromHome loads home/config.yaml over defaults rooted at home
func LoadConfigFromHome(home string) (*Config, error) {
	return loadInto(DefaultConfigAt(home), filepath.Join(home, ConfigFileName))
}

// LoadConfigFromDir loads configuration from .phishdrill/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfigFromHome(filepath.Join(dir, DirName))
}

func loadInto(cfg *Config, path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields distinguish an explicit zero from an absent key
	type yamlStore struct {
		Driver *string `yaml:"driver"`
		DBPath *string `yaml:"db_path"`
		DSN    *string `yaml:"dsn"`
	}
	type yamlConfig struct {
		Users                *int                        `yaml:"users"`
		Simulations          *int                        `yaml:"simulations"`
		TrainingIntervalDays *int                        `yaml:"training_interval_days"`
		Seed                 *uint64                     `yaml:"seed"`
		Table                *string                     `yaml:"table"`
		LogLevel             *string                     `yaml:"log_level"`
		LogDir               *string                     `yaml:"log_dir"`
		OutputDir            *string                     `yaml:"output_dir"`
		Formats              []string                    `yaml:"formats"`
		Distribution         map[string]int              `yaml:"distribution"`
		Profiles             map[string]behavior.Weights `yaml:"profiles"`
		Store                *yamlStore                  `yaml:"store"`
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setInt(&cfg.Users, y.Users)
	setInt(&cfg.Simulations, y.Simulations)
	setInt(&cfg.TrainingIntervalDays, y.TrainingIntervalDays)
	if y.Seed != nil {
		cfg.Seed = *y.Seed
	}
	setString(&cfg.Table, y.Table)
	setString(&cfg.LogLevel, y.LogLevel)
	setString(&cfg.LogDir, y.LogDir)
	setString(&cfg.OutputDir, y.OutputDir)
	if len(y.Formats) > 0 {
		cfg.Formats = y.Formats
	}
	// A distribution section replaces the default one entirely
	if len(y.Distribution) > 0 {
		cfg.Distribution = y.Distribution
	}
	if len(y.Profiles) > 0 {
		cfg.Profiles = y.Profiles
	}
	if y.Store != nil {
		setString(&cfg.Store.Driver, y.Store.Driver)
		setString(&cfg.Store.DBPath, y.Store.DBPath)
		setString(&cfg.Store.DSN, y.Store.DSN)
	}

	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// FlagOverrides carries CLI flag values; nil fields were not set
type FlagOverrides struct {
	Users                *int
	Simulations          *int
	TrainingIntervalDays *int
	Seed                 *uint64
	Table                *string
	LogLevel             *string
	LogDir               *string
	OutputDir            *string
	Formats              []string
	DBPath               *string
	DSN                  *string
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(f FlagOverrides) {
	setInt(&c.Users, f.Users)
	setInt(&c.Simulations, f.Simulations)
	setInt(&c.TrainingIntervalDays, f.TrainingIntervalDays)
	if f.Seed != nil {
		c.Seed = *f.Seed
	}
	setString(&c.Table, f.Table)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogDir, f.LogDir)
	setString(&c.OutputDir, f.OutputDir)
	if len(f.Formats) > 0 {
		c.Formats = f.Formats
	}
	setString(&c.Store.DBPath, f.DBPath)
	if f.DSN != nil {
		c.Store.DSN = *f.DSN
		c.Store.Driver = DriverPostgres
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Users < 0 {
		return fmt.Errorf("users must be >= 0, got %d", c.Users)
	}
	if c.Simulations < 0 {
		return fmt.Errorf("simulations must be >= 0, got %d", c.Simulations)
	}
	if c.TrainingIntervalDays <= 0 {
		return fmt.Errorf("training_interval_days must be > 0, got %d", c.TrainingIntervalDays)
	}

	if !query.ValidIdentifier(c.Table) {
		return fmt.Errorf("invalid table %q: must match [A-Za-z_][A-Za-z0-9_]*", c.Table)
	}

	// Validate log_level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	for _, f := range c.Formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format %q, must be one of: csv, json, markdown, html", f)
		}
	}

	if _, err := c.ArchetypeDistribution(); err != nil {
		return fmt.Errorf("invalid distribution: %w", err)
	}
	if _, err := c.ProfileWeights(); err != nil {
		return fmt.Errorf("invalid profiles: %w", err)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("store.db_path cannot be empty when store.driver is sqlite")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn cannot be empty when store.driver is postgres")
		}
	default:
		return fmt.Errorf("invalid store.driver %q, must be one of: sqlite, postgres", c.Store.Driver)
	}

	return nil
}

// TrainingInterval returns the time between exercises.
func (c *Config) TrainingInterval() time.Duration {
	return time.Duration(c.TrainingIntervalDays) * 24 * time.Hour
}

// ArchetypeDistribution converts the distribution map.
func (c *Config) ArchetypeDistribution() (simulation.Distribution, error) {
	if len(c.Distribution) == 0 {
		return simulation.DefaultDistribution(), nil
	}
	return simulation.DistributionFromMap(c.Distribution)
}

// ProfileWeights converts and validates the profile overrides.
func (c *Config) ProfileWeights() (map[behavior.Archetype]behavior.Weights, error) {
	if len(c.Profiles) == 0 {
		return nil, nil
	}
	out := make(map[behavior.Archetype]behavior.Weights, len(c.Profiles))
	for label, w := range c.Profiles {
		a, err := behavior.ParseArchetype(label)
		if err != nil {
			return nil, err
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", a, err)
		}
		out[a] = w
	}
	return out, nil
}

// ParseFormats splits a comma separated format list.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "md" {
			f = FormatMarkdown
		}
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
