package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	API         APIConfig         `mapstructure:"api"`
	Voice       VoiceConfig       `mapstructure:"voice"`
	Stream      StreamConfig      `mapstructure:"stream"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Render      RenderConfig      `mapstructure:"render"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"` // For parsing string duration
}

// VoiceConfig holds voice websocket settings
type VoiceConfig struct {
	URL        string `mapstructure:"url"` // Derived from api.base_url when empty
	SampleRate int    `mapstructure:"sample_rate"`
	ChunkMS    int    `mapstructure:"chunk_ms"`
}

// StreamConfig holds chat stream settings
type StreamConfig struct {
	RefreshDelay    time.Duration `mapstructure:"-"`
	RefreshDelayStr string        `mapstructure:"refresh_delay"`
	MaxLineBytes    int           `mapstructure:"max_line_bytes"`
}

// StorageConfig holds the durable client state location
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// AttachmentsConfig holds upload limits
type AttachmentsConfig struct {
	MaxFileSize string `mapstructure:"max_file_size"`
	MaxFiles    int    `mapstructure:"max_files"`
}

// RenderConfig holds markdown rendering settings
type RenderConfig struct {
	Width     int    `mapstructure:"width"`
	CodeStyle string `mapstructure:"code_style"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./" + SettingsDirName)
		viper.AddConfigPath(filepath.Join(xdgConfigHome, SettingsDirName))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.AutomaticEnv()
	bindEnvironmentVariables()

	// A missing settings file is fine; defaults and env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(loaded); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}

	if loaded.Voice.URL == "" {
		loaded.Voice.URL = VoiceURLFromBase(loaded.API.BaseURL)
	}

	cfg = loaded
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8082")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("voice.url", "")
	viper.SetDefault("voice.sample_rate", 24000)
	viper.SetDefault("voice.chunk_ms", 100)

	viper.SetDefault("stream.refresh_delay", "1s")
	viper.SetDefault("stream.max_line_bytes", 1<<20)

	viper.SetDefault("storage.path", "./"+SettingsDirName+"/state.db")

	viper.SetDefault("attachments.max_file_size", "10MB")
	viper.SetDefault("attachments.max_files", 5)

	viper.SetDefault("render.width", 100)
	viper.SetDefault("render.code_style", "monokai")

	viper.SetDefault("logging.log_file", "./"+SettingsDirName+"/system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables binds DEEPSHIP_ prefixed variables to viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("api.base_url", "DEEPSHIP_API_URL")
	viper.BindEnv("api.timeout", "DEEPSHIP_API_TIMEOUT")
	viper.BindEnv("voice.url", "DEEPSHIP_VOICE_URL")
	viper.BindEnv("stream.refresh_delay", "DEEPSHIP_REFRESH_DELAY")
	viper.BindEnv("storage.path", "DEEPSHIP_STORAGE_PATH")
	viper.BindEnv("logging.log_file", "DEEPSHIP_LOG_FILE")
	viper.BindEnv("logging.level", "DEEPSHIP_LOG_LEVEL")
	viper.BindEnv("logging.preserve", "DEEPSHIP_LOG_PRESERVE")
}

// processDurations converts string durations to time.Duration
func processDurations(cfg *Config) error {
	if cfg.API.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.API.TimeoutStr)
		if err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
		cfg.API.Timeout = d
	} else if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	if cfg.Stream.RefreshDelayStr != "" {
		d, err := time.ParseDuration(cfg.Stream.RefreshDelayStr)
		if err != nil {
			return fmt.Errorf("invalid stream.refresh_delay: %w", err)
		}
		cfg.Stream.RefreshDelay = d
	} else if cfg.Stream.RefreshDelay == 0 {
		cfg.Stream.RefreshDelay = time.Second
	}

	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
