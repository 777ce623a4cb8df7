package app

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/ribbonsync/pkg/assembly"
	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "RIBBONSYNC"

// DefaultUIState is the file the CLI keeps the simulated live UI in.
const DefaultUIState = "ribbonsync-ui.yaml"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Sync configuration
	Packages   []string `validate:"dive,required"`
	LoaderDir  string
	CacheDir   string
	AliasFile  string
	Assemblies []assembly.Loaded `validate:"dive"`
	UIState    string            `validate:"required"`
	DryRun     bool
	Debounce   time.Duration `validate:"gt=0"`
	Layout     layout.Layout

	// Logging configuration
	LogLevel  string
	LogFormat string `validate:"oneof=auto json console"`
	LogOutput string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. RIBBONSYNC_* environment variables
//  3. .env files
//  4. Config file (configFile, or ~/.ribbonsync.yaml, or ./.ribbonsync.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "could not read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".ribbonsync")
		// A missing default config file is fine
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.NewConfigError("config", "could not read config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Packages:  v.GetStringSlice("packages"),
		LoaderDir: v.GetString("loader_dir"),
		CacheDir:  v.GetString("cache_dir"),
		AliasFile: v.GetString("alias_file"),
		UIState:   v.GetString("ui_state"),
		DryRun:    v.GetBool("dry_run"),
		Debounce:  v.GetDuration("debounce"),
		Layout:    layout.Default(),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := v.UnmarshalKey("assemblies", &config.Assemblies); err != nil {
		return nil, errors.NewConfigError("config", "invalid assemblies", err)
	}
	// Keys missing from the layout section keep their defaults
	if v.IsSet("layout") {
		if err := v.UnmarshalKey("layout", &config.Layout); err != nil {
			return nil, errors.NewConfigError("config", "invalid layout", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigError("config", "invalid configuration", err)
	}
	if err := c.Layout.Validate(); err != nil {
		return errors.NewConfigError("config", "invalid layout", err)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ui_state", DefaultUIState)
	v.SetDefault("debounce", constants.WatchDebounce)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are never overwritten.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
