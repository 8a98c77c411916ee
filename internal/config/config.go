// Package config loads drdb's own tool settings: which secret store to read
// from, how to reach the database, and how to log.
//
// These settings are NOT the resolver's inputs. PREFIX, DATABASE_NAME and the
// other required variables are always read from the process environment by
// internal/resolve.
//
// Layers, highest precedence last:
//
//  1. Built-in defaults (Default).
//  2. Optional YAML settings file (--settings).
//  3. Environment variables prefixed DRDB_, where "__" maps to "."
//     (e.g. DRDB_SECRET_STORE__TYPE → secret_store.type).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"github.com/systmms/drdb/internal/environ"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/logging"
	"github.com/systmms/drdb/pkg/provider"
)

// EnvPrefix marks environment variables that override settings.
const EnvPrefix = "DRDB_"

// Config holds the runtime configuration shared by CLI commands.
type Config struct {
	// Path is the optional YAML settings file.
	Path string
	// EnvFile is an optional dotenv file loaded into the process environment
	// before anything is resolved.
	EnvFile string
	// MetricsTextfile, when set, receives the run's metrics on exit.
	MetricsTextfile string
	Debug           bool

	Logger *logging.Logger
	// LogOptions are the logger flags given on the command line. Settings
	// only fill in what the flags left empty.
	LogOptions logging.Options
	Settings   *Settings

	// Env is where the resolver reads required variables. Nil means the
	// process environment.
	Env environ.Lookup
	// SecretProvider, when set, is used instead of the store named in the
	// settings.
	SecretProvider provider.Provider
}

// Load reads the dotenv file and the settings layers into c.Settings.
func (c *Config) Load() error {
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}

	if c.EnvFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(c.EnvFile); err != nil {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Failed to load env file %s", c.EnvFile),
				Details:    err.Error(),
				Suggestion: "Check the path passed with --env-file",
				Err:        err,
			}
		}
		c.Logger.Debug("env file loaded", "file", c.EnvFile)
	}

	settings, err := LoadSettings(c.Path)
	if err != nil {
		return err
	}
	c.Settings = settings
	c.applyLogSettings(settings.Log)

	c.Logger.Debug("settings loaded",
		"file", c.Path,
		"secret_store", settings.SecretStore.Type,
		"sslmode", settings.Database.SSLMode,
	)
	return nil
}

// applyLogSettings rebuilds the logger when the settings ask for a level,
// JSON output or a log file the command line did not already set.
func (c *Config) applyLogSettings(s Log) {
	opts := c.LogOptions
	if opts.Level == "" && s.Level != "" && s.Level != "info" {
		opts.Level = s.Level
	}
	if opts.Format == "" && s.Format == "json" {
		opts.Format = s.Format
	}
	if opts.File == "" && s.File != "" {
		opts.File = s.File
	}
	if opts == c.LogOptions {
		return
	}

	logger, err := logging.NewWithOptions(opts)
	if err != nil {
		c.Logger.Warn("Failed to apply log settings", "error", err)
		return
	}
	c.Logger = logger
	c.LogOptions = opts
}

// Lookup returns c.Env, or the process environment when it is nil or a nil
// Map.
func (c *Config) Lookup() environ.Lookup {
	if m, ok := c.Env.(environ.Map); c.Env == nil || (ok && m == nil) {
		return environ.OS
	}
	return c.Env
}

// LoadSettings merges defaults, the optional YAML file at path, and DRDB_
// environment overrides, then validates the result.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("Settings file %s not found", path),
				Suggestion: "Pass an existing file with --settings or omit the flag to use defaults",
				Err:        err,
			}
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, dserrors.UserError{
				Message:    "Invalid YAML format in settings file",
				Details:    err.Error(),
				Suggestion: "Check for indentation errors and missing quotes",
				Err:        err,
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read %s environment overrides: %w", EnvPrefix, err)
	}

	settings := Default()
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// envKey maps DRDB_SECRET_STORE__TYPE to secret_store.type.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}
