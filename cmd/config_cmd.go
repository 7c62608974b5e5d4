/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrelhq/ddrgen/internal/ui"
)

// configCmd is the parent config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective ddrgen configuration",
	Long: `Prints the configuration that results from merging defaults, the config
file and DDRGEN_* environment variables. The LLM API key is masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

// configShowCmd shows current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow() error {
	// Work on a copy so masking never touches the live config.
	shown := *GetConfig()
	shown.LLM.APIKey = maskKey(shown.LLM.APIKey)

	out, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Println(ui.StyleSubtle.Render("Config file: " + used))
	} else {
		fmt.Println(ui.StyleSubtle.Render("Config file: none (defaults and environment)"))
	}
	fmt.Println(string(out))
	return nil
}

// maskKey hides all but the last four characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
