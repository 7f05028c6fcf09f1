// Package config loads studydesk's runtime configuration. Sources are applied
// in order: built-in defaults, an optional YAML file, STUDYDESK_ environment
// variables (a .env file is honoured) and finally command-line flags.
//
// The API key and theme are not configuration; they live in the settings table.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "STUDYDESK_"

type Config struct {
	DataDir  string        `koanf:"data_dir" validate:"required"`
	DB       string        `koanf:"db" validate:"required"`
	Watchdog time.Duration `koanf:"watchdog" validate:"min=0"`
	Log      LogConfig     `koanf:"log"`
	LLM      LLMConfig     `koanf:"llm"`
	Serve    ServeConfig   `koanf:"serve"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	File  string `koanf:"file"`
}

type LLMConfig struct {
	Endpoint         string        `koanf:"endpoint" validate:"required,url"`
	Model            string        `koanf:"model" validate:"required"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	PlaceholderDelay time.Duration `koanf:"placeholder_delay" validate:"min=0"`
}

type ServeConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"db":        "db",
	"watchdog":  "watchdog",
	"log-level": "log.level",
	"log-file":  "log.file",
	"addr":      "serve.addr",
}

// NewFlagSet returns the flags every studydesk command accepts.
func NewFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "Path to a YAML config file (default <data-dir>/studydesk.yaml)")
	flags.String("data-dir", "", "Directory for the database, logs and cloned question sheets")
	flags.String("db", "", "Path to the SQLite database file (default <data-dir>/studydesk.db)")
	flags.Duration("watchdog", 0, "Give up on an answer after this long (0 waits forever)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Log file (default <data-dir>/studydesk.log)")
	flags.String("addr", "", "Listen address for the local dashboard")
	return flags
}

func defaults() map[string]interface{} {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "studydesk")
	}
	return map[string]interface{}{
		"data_dir":              dataDir,
		"db":                    "",
		"watchdog":              "60s",
		"log.level":             "info",
		"log.file":              "",
		"llm.endpoint":          "https://api.deepseek.com/v1/chat/completions",
		"llm.model":             "deepseek-chat",
		"llm.timeout":           "15s",
		"llm.placeholder_delay": "1s",
		"serve.addr":            "127.0.0.1:8765",
	}
}

// Load builds the configuration from every source. fs must already be parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The data dir may come from env or flags, so resolve it before looking for the file.
	path, explicit := configPath(flags)
	if path == "" {
		path = filepath.Join(preliminaryDataDir(k, flags), "studydesk.yaml")
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// STUDYDESK_LLM__PLACEHOLDER_DELAY -> llm.placeholder_delay
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.resolvePaths()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func configPath(flags *pflag.FlagSet) (string, bool) {
	if p, err := flags.GetString("config"); err == nil && p != "" {
		return p, true
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return "", false
}

func preliminaryDataDir(k *koanf.Koanf, flags *pflag.FlagSet) string {
	if d, err := flags.GetString("data-dir"); err == nil && d != "" {
		return d
	}
	if d := os.Getenv(envPrefix + "DATA_DIR"); d != "" {
		return d
	}
	return k.String("data_dir")
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// flagValue renames flags to their config keys; flags without one, such as
// --config, are skipped.
func flagValue(flags *pflag.FlagSet) func(f *pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
}

func (c *Config) resolvePaths() {
	if c.DB == "" {
		c.DB = filepath.Join(c.DataDir, "studydesk.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "studydesk.log")
	}
}

// ReposDir is where question sheets from git sources are cloned.
func (c *Config) ReposDir() string {
	return filepath.Join(c.DataDir, "repos")
}
