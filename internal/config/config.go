package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Detector DetectorConfig `mapstructure:"detector"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// CaptchaConfig tunes the challenge progression.
type CaptchaConfig struct {
	// Attempts is the per-stage failure budget.
	Attempts int `mapstructure:"attempts"`
	// FreshnessWindow is how long an issued challenge stays answerable.
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	// PartFailOpen accepts any click on part challenges issued without a
	// bounding box. Legacy behavior; default is to reject.
	PartFailOpen bool `mapstructure:"part_fail_open"`
	// Bank is the path to the challenge bank YAML.
	Bank string `mapstructure:"bank"`
}

// DetectorConfig locates the behavioral classifier artifact.
type DetectorConfig struct {
	// Model is the path to the versioned classifier artifact.
	Model string `mapstructure:"model"`
	// Required makes a missing artifact fatal instead of disabling
	// kinematic gating.
	Required bool `mapstructure:"required"`
	// MinSamples below which a movement batch is rejected as too fast.
	MinSamples int `mapstructure:"min_samples"`
}

// AssetsConfig holds settings for generated challenge assets.
type AssetsConfig struct {
	Directory string `mapstructure:"directory"`
	// MaxAge after which generated files are swept.
	MaxAge time.Duration `mapstructure:"max_age"`
	// SweepInterval between cleanup runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// DatabaseConfig holds database connection settings. Persistence covers
// audit events and captured training samples only; verification sessions
// never touch it.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// AdminConfig guards the stats endpoint.
type AdminConfig struct {
	// PasswordHash is a bcrypt hash; empty disables the admin routes.
	PasswordHash string `mapstructure:"password_hash"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults. No session_secret default: left empty, the router
	// mints a random per-process secret instead of shipping a static key.
	v.SetDefault("server.port", "5000")

	// Captcha defaults
	v.SetDefault("captcha.attempts", 2)
	v.SetDefault("captcha.freshness_window", "300s")
	v.SetDefault("captcha.part_fail_open", false)
	v.SetDefault("captcha.bank", "config/challenges.yaml")

	// Detector defaults
	v.SetDefault("detector.model", "config/captcha_guard.json")
	v.SetDefault("detector.required", false)
	v.SetDefault("detector.min_samples", 10)

	// Assets defaults
	v.SetDefault("assets.directory", "assets/generated")
	v.SetDefault("assets.max_age", "15m")
	v.SetDefault("assets.sweep_interval", "1m")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "botgate")

	// Admin defaults
	v.SetDefault("admin.password_hash", "")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("BOTGATE") // e.g., BOTGATE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
