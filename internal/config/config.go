// Package config loads the application configuration from .env, an
// optional YAML file and the environment, in that order of discovery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"collecte/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	App             App             `mapstructure:"app"`
	SemanticScholar SemanticScholar `mapstructure:"semantic_scholar"`
	Tor             Tor             `mapstructure:"tor"`
	Translation     Translation     `mapstructure:"translation"`
	Export          Export          `mapstructure:"export"`
	Search          Search          `mapstructure:"search"`
}

// App holds general application configuration.
type App struct {
	DataDir  string `mapstructure:"data_dir"`
	LogDir   string `mapstructure:"log_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// SemanticScholar configures the paper search client.
type SemanticScholar struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Tor configures the optional Tor transport. The browser path is only
// recorded for the status report; the proxy is assumed to be running.
type Tor struct {
	SocksProxy      string `mapstructure:"socks_proxy"`
	HTTPProxy       string `mapstructure:"http_proxy"`
	BrowserPath     string `mapstructure:"browser_path"`
	ControlPort     int    `mapstructure:"control_port"`
	ControlPassword string `mapstructure:"control_password"`
}

// Translation selects and configures the query translation backend.
type Translation struct {
	Provider     string `mapstructure:"provider"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	CacheSize    int    `mapstructure:"cache_size"`
}

// Export configures where workbooks are written.
type Export struct {
	Directory string `mapstructure:"directory"`
}

// Search holds collection run limits.
type Search struct {
	MaxKeywordRules int `mapstructure:"max_keyword_rules"`
}

var globalConfig *Config

// Load reads the configuration once and caches it. An explicit file
// path wins over the default lookup of .collecte.yaml in the working
// directory and $HOME.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".collecte")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COLLECTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	postProcessConfig(config)
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.data_dir", "Results")
	viper.SetDefault("app.log_dir", "logs")
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("semantic_scholar.endpoint", "https://api.semanticscholar.org/graph/v1/paper/search")
	viper.SetDefault("semantic_scholar.timeout_seconds", 60)

	viper.SetDefault("tor.control_port", 0)

	viper.SetDefault("translation.provider", "google")
	viper.SetDefault("translation.gemini_model", "gemini-2.5-flash")
	viper.SetDefault("translation.cache_size", 512)

	viper.SetDefault("export.directory", ".")

	viper.SetDefault("search.max_keyword_rules", 5)
}

// bindEnvironmentVariables keeps the historical flat variable names
// working alongside the COLLECTE_ prefixed ones.
func bindEnvironmentVariables() {
	bindEnvKeys("semantic_scholar.api_key", []string{
		"SEMANTIC_SCHOLAR_API_KEY",
	})
	bindEnvKeys("tor.socks_proxy", []string{
		"TOR_SOCKS_PROXY",
	})
	bindEnvKeys("tor.http_proxy", []string{
		"TOR_PROXY",
	})
	bindEnvKeys("tor.browser_path", []string{
		"TOR_BROWSER_PATH",
	})
	bindEnvKeys("tor.control_password", []string{
		"TOR_CONTROL_PASSWORD",
	})
	bindEnvKeys("translation.gemini_api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
	})

	if raw := os.Getenv("TOR_CONTROL_PORT"); raw != "" {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || port < 0 {
			logger.Warn("ignoring invalid TOR_CONTROL_PORT", map[string]interface{}{"value": raw})
		} else {
			viper.Set("tor.control_port", port)
		}
	}
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func postProcessConfig(config *Config) {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.App.LogDir != "" {
		config.App.LogDir = expandPath(config.App.LogDir)
	}
	if config.Export.Directory != "" {
		config.Export.Directory = expandPath(config.Export.Directory)
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func validateConfig(config *Config) error {
	switch config.Translation.Provider {
	case "", "google", "gemini", "off":
	default:
		return fmt.Errorf("unknown translation provider %q (expected google, gemini or off)", config.Translation.Provider)
	}
	if config.SemanticScholar.TimeoutSeconds <= 0 {
		config.SemanticScholar.TimeoutSeconds = 60
	}
	return nil
}
