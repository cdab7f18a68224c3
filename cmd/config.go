package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables read by gfi. Flags take precedence over them.
const (
	envAccountID    = "GHOSTFOLIO_ACCOUNT_ID"
	envDebugLogging = "DEBUG_LOGGING"
	envCacheFolder  = "E2G_CACHE_FOLDER"
	envProvider     = "QUOTE_PROVIDER"
	envProviderURL  = "QUOTE_PROVIDER_URL"
	envEODHDKey     = "EODHD_API_KEY"
	envLogLevel     = "LOG_LEVEL"
)

const (
	providerYahoo = "yahoo"
	providerEODHD = "eodhd"
)

var providers = []string{providerYahoo, providerEODHD}

// config is the resolved configuration of a run.
type config struct {
	AccountID   string
	Indent      bool // write indented exports
	CacheFile   string
	Provider    string
	ProviderURL string // replaces the provider API host when set
	EODHDKey    string
	LogLevel    zerolog.Level
}

// loadConfig reads the dotenv file, if any, then the environment and the flags.
func loadConfig() (*config, error) {
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load %s: %w", *envFile, err)
	}

	cfg := &config{
		AccountID:   getEnv(envAccountID, ""),
		Indent:      getEnvAsBool(envDebugLogging, false),
		Provider:    strings.ToLower(flagOrEnv(*provider, envProvider, providerYahoo)),
		ProviderURL: flagOrEnv(*providerURL, envProviderURL, ""),
		EODHDKey:    flagOrEnv(*eodhdAPIKey, envEODHDKey, ""),
	}

	level, err := zerolog.ParseLevel(strings.ToLower(flagOrEnv(*logLevel, envLogLevel, "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg.LogLevel = level

	cfg.CacheFile = *cacheFile
	if cfg.CacheFile == "" {
		folder := flagOrEnv(*cacheFolder, envCacheFolder, "")
		if folder == "" {
			folder = defaultCacheFolder()
		}
		// one file per provider, their symbols differ
		cfg.CacheFile = filepath.Join(folder, cfg.Provider+"-symbols.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values that every command needs.
func (c *config) Validate() error {
	for _, p := range providers {
		if c.Provider == p {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q, use one of %s", c.Provider, strings.Join(providers, ", "))
}

func defaultCacheFolder() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".cache"
	}
	return filepath.Join(dir, "ghostimport")
}

func flagOrEnv(flagValue, key, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(key, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool reads a boolean. Set values that do not parse count as true.
func getEnvAsBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return b
}
