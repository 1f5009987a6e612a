package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "TRAINCHECK"
	configFileName = "config"
	configFileType = "yaml"
	FileName       = "config.yaml"

	KeyListenAddr        = "listen_addr"
	KeyDataDir           = "data_dir"
	KeyDBPath            = "db_path"
	KeyPhotoPath         = "photo_path"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeyLogFile           = "log_file"
	KeyTimezone          = "timezone"
	KeyPhotoMaxDimension = "photo_max_dimension"
	KeyPhotoQuality      = "photo_quality"
	KeyAtomicSubmit      = "atomic_submit"
	KeySeedTrains        = "seed_trains"
)

type Config struct {
	ListenAddr        string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	DataDir           string   `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	DBPath            string   `mapstructure:"db_path" yaml:"db_path,omitempty"`
	PhotoPath         string   `mapstructure:"photo_path" yaml:"photo_path,omitempty"`
	LogLevel          string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string   `mapstructure:"log_format" yaml:"log_format"`
	LogFile           string   `mapstructure:"log_file" yaml:"log_file,omitempty"`
	Timezone          string   `mapstructure:"timezone" yaml:"timezone,omitempty"`
	PhotoMaxDimension int      `mapstructure:"photo_max_dimension" yaml:"photo_max_dimension"`
	PhotoQuality      int      `mapstructure:"photo_quality" yaml:"photo_quality"`
	AtomicSubmit      bool     `mapstructure:"atomic_submit" yaml:"atomic_submit"`
	SeedTrains        []string `mapstructure:"seed_trains" yaml:"seed_trains"`
}

// Defaults returns the built-in configuration. DBPath and PhotoPath are left
// empty and derived from DataDir on load.
func Defaults() Config {
	return Config{
		ListenAddr:        "127.0.0.1:8080",
		DataDir:           DefaultDataDir(),
		LogLevel:          "info",
		LogFormat:         "json",
		PhotoMaxDimension: 1920,
		PhotoQuality:      80,
		SeedTrains:        []string{"361", "362", "363", "364", "365", "366", "367", "368", "369", "370"},
	}
}

// DefaultDataDir is ~/.traincheck, or .traincheck in the working directory
// when no home directory is available.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".traincheck"
	}
	return filepath.Join(home, ".traincheck")
}

// NewViper returns a viper instance carrying the defaults and reading
// TRAINCHECK_* environment variables. Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	d := Defaults()
	v := viper.New()
	v.SetDefault(KeyListenAddr, d.ListenAddr)
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeyPhotoPath, "")
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimezone, "")
	v.SetDefault(KeyPhotoMaxDimension, d.PhotoMaxDimension)
	v.SetDefault(KeyPhotoQuality, d.PhotoQuality)
	v.SetDefault(KeyAtomicSubmit, false)
	v.SetDefault(KeySeedTrains, d.SeedTrains)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration. An explicit configFile must exist;
// otherwise config.yaml in the data directory is read when present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(v.GetString(KeyDataDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.derivePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) derivePaths() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "traincheck.db")
	}
	if c.PhotoPath == "" {
		c.PhotoPath = filepath.Join(c.DataDir, "photos")
	}
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid %s %q: want json or text", KeyLogFormat, c.LogFormat)
	}
	if c.PhotoQuality < 1 || c.PhotoQuality > 100 {
		return fmt.Errorf("invalid %s %d: want 1-100", KeyPhotoQuality, c.PhotoQuality)
	}
	if c.PhotoMaxDimension < 1 {
		return fmt.Errorf("invalid %s %d: must be positive", KeyPhotoMaxDimension, c.PhotoMaxDimension)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone used for calendar dates. An empty timezone means
// the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", KeyTimezone, c.Timezone, err)
	}
	return loc, nil
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	// The data directory is where the file usually lives, so it is not
	// written out.
	defaults := Defaults()
	defaults.DataDir = ""
	body, err := yaml.Marshal(defaults)
	if err != nil {
		return false, fmt.Errorf("failed to encode config: %w", err)
	}
	data := append([]byte("# traincheck configuration\n# Every key can be overridden with a TRAINCHECK_<KEY> environment variable.\n"), body...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
