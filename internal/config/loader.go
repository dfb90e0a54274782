package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application environment.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Loader loads and, optionally, hot-reloads a Config from a YAML file
// layered with environment variable overrides.
type Loader struct {
	environment Environment
	configPath  string
	configFile  string
	viper       *viper.Viper
	logger      *zap.Logger
	validate    *validator.Validate

	reloadMutex   sync.RWMutex
	config        *Config
	reloadEnabled bool
	reloadChan    chan struct{}
	watcher       *fsnotify.Watcher
}

// NewLoader creates a Loader for the given environment. It reads a .env
// file (if present) into the process environment before resolving paths,
// matching the teacher's development bootstrap.
func NewLoader(environment Environment, logger *zap.Logger) *Loader {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs"
	}
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		switch environment {
		case EnvironmentDevelopment:
			configFile = "config.dev.yaml"
		case EnvironmentStaging:
			configFile = "config.staging.yaml"
		default:
			configFile = "config.yaml"
		}
	}

	return &Loader{
		environment: environment,
		configPath:  configPath,
		configFile:  configFile,
		viper:       viper.New(),
		logger:      logger,
		validate:    validator.New(),
		reloadChan:  make(chan struct{}),
	}
}

// Load reads the config file (if present), layers environment variable
// overrides on top, and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.reloadMutex.Lock()
	defer l.reloadMutex.Unlock()

	l.viper.SetConfigType("yaml")
	configFilePath := filepath.Join(l.configPath, l.configFile)
	l.viper.SetConfigFile(configFilePath)

	if err := l.viper.ReadInConfig(); err != nil {
		l.logger.Warn("error reading config file, falling back to defaults and env vars",
			zap.Error(err), zap.String("path", configFilePath))
	} else {
		l.logger.Info("loaded configuration file", zap.String("path", configFilePath))
	}

	l.viper.AutomaticEnv()
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.viper.BindEnv("app.environment", "ENVIRONMENT")
	l.viper.BindEnv("app.log_level", "LOG_LEVEL")
	l.viper.BindEnv("app.debug", "DEBUG")
	l.viper.BindEnv("logging.file_path", "LOG_PATH")
	l.viper.BindEnv("data.source", "DATA_SOURCE")
	l.viper.BindEnv("data.path", "DATA_PATH")
	l.viper.BindEnv("engine.initial_bankroll", "INITIAL_BANKROLL")
	l.viper.BindEnv("engine.tick_interval_seconds", "TICK_INTERVAL_SECONDS")
	l.viper.BindEnv("report.output_path", "REPORT_OUTPUT_PATH")

	l.viper.SetDefault("app.environment", string(l.environment))
	l.viper.SetDefault("app.log_level", "info")
	l.viper.SetDefault("app.debug", l.environment == EnvironmentDevelopment)
	l.viper.SetDefault("logging.file_path", "./logs")
	l.viper.SetDefault("logging.max_size", 10)
	l.viper.SetDefault("logging.max_backups", 3)
	l.viper.SetDefault("logging.max_age", 30)
	l.viper.SetDefault("data.source", "csv")
	l.viper.SetDefault("data.path", "./data")
	l.viper.SetDefault("data.payoff_publish_delay_seconds", 0)
	l.viper.SetDefault("engine.initial_bankroll", 100000.0)
	l.viper.SetDefault("engine.tick_interval_seconds", 60)
	l.viper.SetDefault("report.output_path", "./reports/bets.csv")

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := l.validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	l.config = &cfg
	return &cfg, nil
}

// EnableReload starts watching the config file for writes, reloading and
// re-validating on each change, and notifying ReloadChan subscribers.
func (l *Loader) EnableReload() error {
	l.reloadMutex.Lock()
	defer l.reloadMutex.Unlock()

	if l.reloadEnabled {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	configFilePath := filepath.Join(l.configPath, l.configFile)
	if err := watcher.Add(configFilePath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	l.watcher = watcher
	l.reloadEnabled = true
	go l.watchConfigChanges()

	l.logger.Info("configuration reloading enabled", zap.String("path", configFilePath))
	return nil
}

// DisableReload stops the file watcher started by EnableReload.
func (l *Loader) DisableReload() {
	l.reloadMutex.Lock()
	defer l.reloadMutex.Unlock()

	if !l.reloadEnabled {
		return
	}
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
	l.reloadEnabled = false
}

func (l *Loader) watchConfigChanges() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				time.Sleep(100 * time.Millisecond)
				if _, err := l.Load(); err != nil {
					l.logger.Error("failed to reload configuration", zap.Error(err))
					continue
				}
				select {
				case l.reloadChan <- struct{}{}:
				default:
				}
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("error watching config file", zap.Error(err))
		}
	}
}

// ReloadChan is notified whenever the config is successfully reloaded.
func (l *Loader) ReloadChan() <-chan struct{} {
	return l.reloadChan
}

// Config returns the most recently loaded configuration.
func (l *Loader) Config() *Config {
	l.reloadMutex.RLock()
	defer l.reloadMutex.RUnlock()
	return l.config
}
