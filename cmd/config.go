package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrelhq/ddrgen/types"
)

const (
	configName = ".ddrgen"
	envPrefix  = "DDRGEN"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	if errs := validate.Struct(config); errs != nil {
		return errs
	}
	return nil
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present. It's okay if it doesn't exist.
	_ = godotenv.Load()

	// Environment variable handling must be set up BEFORE reading the config
	// file so env vars can influence where the config is loaded from.
	viper.SetEnvPrefix(envPrefix)                          // e.g., DDRGEN_VERBOSE
	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // llm.apiKey -> DDRGEN_LLM_APIKEY

	cfgFileFlag := viper.GetString("config") // Value from --config flag

	// The project dir doubles as the config search dir, so resolve it before
	// the full unmarshal.
	projectDir := viper.GetString("project.dir")
	if projectDir == "" {
		projectDir = ".ddrgen"
	}

	if cfgFileFlag != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFileFlag)
	} else {
		if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
			// Project dir exists; prefer ./.ddrgen/.ddrgen.yaml.
			viper.AddConfigPath(projectDir)
			viper.SetConfigName(configName)
		} else {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			viper.AddConfigPath(home) // $HOME/.ddrgen.yaml
			viper.AddConfigPath(".")  // ./.ddrgen.yaml
			viper.SetConfigName(configName)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	// Set default values
	viper.SetDefault("project.dir", ".ddrgen")
	viper.SetDefault("project.outputDir", ".ddrgen/reports")
	viper.SetDefault("project.templatesDir", "")

	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.model", "gemini-2.0-flash")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.requestTimeoutSeconds", 120)

	viper.SetDefault("retry.maxAttempts", 3)
	viper.SetDefault("retry.initialBackoffMs", 500)
	viper.SetDefault("retry.maxBackoffMs", 8000)
	viper.SetDefault("retry.multiplier", 2.0)

	viper.SetDefault("normalize.similarityThreshold", 0.80)
	viper.SetDefault("merge.dedupThreshold", 0.85)
	viper.SetDefault("merge.temperatureToleranceC", 5.0)

	viper.SetDefault("batch.workers", 4)
	viper.SetDefault("batch.debounceMs", 750)

	// After all sources are configured, unmarshal into GlobalAppConfig
	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	// A config file can exist yet omit these nested keys; fall back to the
	// viper defaults rather than running with empty paths.
	if GlobalAppConfig.Project.Dir == "" {
		GlobalAppConfig.Project.Dir = viper.GetString("project.dir")
	}
	if GlobalAppConfig.Project.OutputDir == "" {
		GlobalAppConfig.Project.OutputDir = viper.GetString("project.outputDir")
	}

	// Validate the populated configuration
	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
