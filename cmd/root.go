/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrelhq/ddrgen/internal/docload"
	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/internal/merge"
	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/llm"
	"github.com/kestrelhq/ddrgen/store"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ddrgen",
	Short: "ddrgen reconciles inspection and thermal findings into diagnostic reports.",
	Long: `ddrgen merges a property's visual inspection report with its thermal
imaging report and produces a single Detailed Diagnostic Report (DDR):
deduplicated per-area observations, temperature conflicts flagged with both
readings, and a root-cause analysis with a severity assessment.

Extraction and analysis run against a configured chat model; merging is
deterministic. Use 'generate' for one property, 'batch' for a manifest of
properties, and 'runs' to inspect past runs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Internal packages log through slog; keep the default CLI output
		// clean and open up debug logging under --verbose.
		level := slog.LevelWarn
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logging.Init(level, "text")
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.ddrgen/.ddrgen.yaml or $HOME/.ddrgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Bind persistent flags to Viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

// GetLedger opens the run ledger under the project directory.
func GetLedger() (store.RunStore, error) {
	config := GetConfig()
	s, err := store.NewSQLiteStore(config.Project.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger in %s: %w", config.Project.Dir, err)
	}
	return s, nil
}

// outputDir resolves the report output directory, preferring the flag value
// when set.
func outputDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return GetConfig().Project.OutputDir
}

// templatesDir resolves the prompt-override directory; empty disables
// overrides.
func templatesDir() string {
	config := GetConfig()
	if config.Project.TemplatesDir == "" {
		return ""
	}
	if filepath.IsAbs(config.Project.TemplatesDir) {
		return config.Project.TemplatesDir
	}
	return filepath.Join(config.Project.Dir, config.Project.TemplatesDir)
}

// buildPipeline wires the document loader, chat-model collaborators, merge
// engine and retry policy from the effective configuration. The returned
// pipeline is reused across the runs of one command invocation.
func buildPipeline(ctx context.Context, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	config := GetConfig()

	chatModel, err := llm.NewChatModel(ctx, llm.Config{
		Provider: llm.Provider(config.LLM.Provider),
		Model:    config.LLM.Model,
		APIKey:   resolveAPIKey(),
		BaseURL:  config.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for provider %q: %w", config.LLM.Provider, err)
	}

	tmpl := templatesDir()
	docs := docload.NewRegistry(afero.NewOsFs())
	extractor := llm.NewChatExtractor(chatModel, tmpl)
	analyzer := llm.NewChatAnalyzer(chatModel, tmpl)
	merger := merge.NewEngine(merge.Config{
		AreaSimilarityThreshold: config.Normalize.SimilarityThreshold,
		DedupThreshold:          config.Merge.DedupThreshold,
		TemperatureToleranceC:   config.Merge.TemperatureToleranceC,
	})

	opts := []pipeline.Option{}
	if config.LLM.RequestTimeoutSeconds > 0 {
		opts = append(opts, pipeline.WithCallTimeout(time.Duration(config.LLM.RequestTimeoutSeconds)*time.Second))
	}
	opts = append(opts, extra...)

	return pipeline.New(docs, extractor, analyzer, merger, pipeline.PolicyFromConfig(config.Retry), opts...), nil
}

// resolveAPIKey prefers the config value, then provider-conventional
// environment variables. Keys are never persisted by ddrgen itself.
func resolveAPIKey() string {
	config := GetConfig()
	if config.LLM.APIKey != "" {
		return config.LLM.APIKey
	}
	switch config.LLM.Provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}
