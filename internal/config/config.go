// Package config loads Aether's settings from defaults, an optional YAML
// file, .env files and the environment.
//
// Precedence, highest first: command-line overrides, environment, config
// file, .env files, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineMemory = "memory"
	EngineChrome = "chrome"
)

type ChromeConfig struct {
	Bin        string `mapstructure:"bin"`
	Headless   bool   `mapstructure:"headless"`
	ControlURL string `mapstructure:"control_url"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	DataDir      string         `mapstructure:"data_dir"`
	DBPath       string         `mapstructure:"db_path"`
	LogLevel     string         `mapstructure:"log_level"`
	LogFile      string         `mapstructure:"log_file"`
	Engine       string         `mapstructure:"engine"`
	FetchTitles  bool           `mapstructure:"fetch_titles"`
	FetchTimeout time.Duration  `mapstructure:"fetch_timeout"`
	Chrome       ChromeConfig   `mapstructure:"chrome"`
	OpenAI       ProviderConfig `mapstructure:"openai"`
	Anthropic    ProviderConfig `mapstructure:"anthropic"`
	Gemini       ProviderConfig `mapstructure:"gemini"`
}

// Options are the command-line overrides. Empty fields are ignored.
type Options struct {
	ConfigFile string
	DataDir    string
	LogLevel   string
	LogFile    string
	Engine     string
}

// envAliases maps config keys to the conventional variable names read in
// addition to AETHER_<KEY>.
var envAliases = map[string][]string{
	"openai.api_key":    {"OPENAI_API_KEY"},
	"openai.base_url":   {"OPENAI_BASE_URL"},
	"anthropic.api_key": {"ANTHROPIC_API_KEY"},
	"gemini.api_key":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// DefaultDataDir is <user config dir>/aether.
func DefaultDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "aether"), nil
}

func Load(opts Options) (Config, error) {
	v := viper.New()

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = os.Getenv("AETHER_DATA_DIR")
	}
	if dataDir == "" {
		d, err := DefaultDataDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = d
	}

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("engine", EngineMemory)
	v.SetDefault("fetch_titles", true)
	v.SetDefault("fetch_timeout", 5*time.Second)
	v.SetDefault("chrome.bin", "")
	v.SetDefault("chrome.headless", false)
	v.SetDefault("chrome.control_url", "")
	for _, p := range []string{"openai", "anthropic", "gemini"} {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".base_url", "")
	}

	if err := applyDotenv(v, dataDir); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix("AETHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, "AETHER_" + envName(key)}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, err
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}
	if opts.LogLevel != "" {
		v.Set("log_level", opts.LogLevel)
	}
	if opts.LogFile != "" {
		v.Set("log_file", opts.LogFile)
	}
	if opts.Engine != "" {
		v.Set("engine", opts.Engine)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "aether.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "aether.log")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Engine {
	case EngineMemory, EngineChrome:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineMemory, EngineChrome)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// applyDotenv reads .env from the data dir and then the working directory,
// the latter winning. Values become defaults so real environment variables
// still take precedence. The process environment is left untouched.
func applyDotenv(v *viper.Viper, dataDir string) error {
	values := map[string]string{}
	for _, path := range []string{filepath.Join(dataDir, ".env"), ".env"} {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		envMap, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for k, val := range envMap {
			values[k] = val
		}
	}

	for _, key := range v.AllKeys() {
		names := append([]string{"AETHER_" + envName(key)}, envAliases[key]...)
		for _, name := range names {
			if val, ok := values[name]; ok {
				v.SetDefault(key, val)
				break
			}
		}
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
