package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hakbang/internal/session"
)

// Config represents the application configuration
type Config struct {
	Athlete  AthleteConfig  `json:"athlete"`
	Display  DisplayConfig  `json:"display"`
	Tracking TrackingConfig `json:"tracking"`
	Storage  StorageConfig  `json:"storage"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	WeightKg float64 `json:"weight_kg"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// TrackingConfig tunes the engine
type TrackingConfig struct {
	MaxAccuracyMeters float64 `json:"max_accuracy_m"`
	GapAfterSeconds   float64 `json:"gap_after_seconds"`
	TickMillis        int     `json:"tick_millis"`
	ReplaySpeed       float64 `json:"replay_speed"`
}

// StorageConfig locates the session database
type StorageConfig struct {
	DBPath string `json:"db_path"` // empty means ~/.hakbang/data.db
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			WeightKg: 70,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Tracking: TrackingConfig{
			MaxAccuracyMeters: 50,
			GapAfterSeconds:   10,
			TickMillis:        1000,
			ReplaySpeed:       1,
		},
	}
}

// Load reads the configuration from ~/.hakbang/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path, filling missing values from
// DefaultConfig.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Athlete.WeightKg == 0 {
		cfg.Athlete.WeightKg = defaults.Athlete.WeightKg
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if cfg.Display.PaceUnit == "" {
		cfg.Display.PaceUnit = defaults.Display.PaceUnit
	}
	if cfg.Tracking.MaxAccuracyMeters == 0 {
		cfg.Tracking.MaxAccuracyMeters = defaults.Tracking.MaxAccuracyMeters
	}
	if cfg.Tracking.GapAfterSeconds == 0 {
		cfg.Tracking.GapAfterSeconds = defaults.Tracking.GapAfterSeconds
	}
	if cfg.Tracking.TickMillis == 0 {
		cfg.Tracking.TickMillis = defaults.Tracking.TickMillis
	}
	if cfg.Tracking.ReplaySpeed == 0 {
		cfg.Tracking.ReplaySpeed = defaults.Tracking.ReplaySpeed
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.hakbang/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return SaveFile(path, &example)
}

// Validate checks the config values are usable
func (c *Config) Validate() error {
	if c.Athlete.WeightKg < 0 || c.Athlete.WeightKg > 400 {
		return fmt.Errorf("athlete.weight_kg must be between 0 and 400, got %v", c.Athlete.WeightKg)
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if c.Tracking.MaxAccuracyMeters < 0 {
		return fmt.Errorf("tracking.max_accuracy_m must not be negative, got %v", c.Tracking.MaxAccuracyMeters)
	}
	if c.Tracking.GapAfterSeconds < 0 {
		return fmt.Errorf("tracking.gap_after_seconds must not be negative, got %v", c.Tracking.GapAfterSeconds)
	}
	if c.Tracking.TickMillis < 0 {
		return fmt.Errorf("tracking.tick_millis must not be negative, got %v", c.Tracking.TickMillis)
	}
	if c.Tracking.ReplaySpeed < 0 {
		return errors.New("tracking.replay_speed must not be negative")
	}

	return nil
}

// Engine converts the tracking and athlete settings to an engine config.
// Zero values fall back to session.DefaultConfig.
func (c *Config) Engine() session.Config {
	cfg := session.DefaultConfig()
	if c.Tracking.TickMillis > 0 {
		cfg.TickInterval = time.Duration(c.Tracking.TickMillis) * time.Millisecond
	}
	if c.Tracking.GapAfterSeconds > 0 {
		cfg.GapAfter = time.Duration(c.Tracking.GapAfterSeconds * float64(time.Second))
	}
	if c.Tracking.MaxAccuracyMeters > 0 {
		cfg.MaxAccuracy = c.Tracking.MaxAccuracyMeters
	}
	if c.Athlete.WeightKg > 0 {
		cfg.WeightKg = c.Athlete.WeightKg
	}
	return cfg
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".hakbang"), nil
}
