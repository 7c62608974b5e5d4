/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can drive
report generation and inspect past runs.

The server runs over stdin/stdout and provides:
- generate-report: run the full pipeline for one property
- list-runs: query the run ledger
- ddrgen://config: the effective configuration as a resource

The server will run until the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	// MCP server inherits verbose flag from root command
}

func runMCPServer(ctx context.Context) error {
	impl := &mcp.Implementation{
		Name:    "ddrgen",
		Version: version,
	}

	server := mcp.NewServer(impl, &mcp.ServerOptions{})

	registerMCPTools(server)

	server.AddResource(&mcp.Resource{
		URI:         "ddrgen://config",
		Name:        "config",
		Description: "Effective ddrgen configuration (API key masked)",
		MIMEType:    "application/json",
	}, configResourceHandler())

	// Run the server over stdin/stdout
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func registerMCPTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate-report",
		Description: "Generate a Detailed Diagnostic Report for one property from its inspection and thermal documents. Runs extraction, merge and analysis; writes the report pair to the output directory and records the run. Returns severity and merge counters.",
	}, generateReportHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list-runs",
		Description: "List recent report runs from the ledger, newest first: property, outcome, failed stage if any, and report path.",
	}, listRunsHandler())
}

// configResourceHandler provides access to the effective configuration.
func configResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
		shown := *GetConfig()
		shown.LLM.APIKey = maskKey(shown.LLM.APIKey)

		jsonData, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}

		logInfo("Provided config resource")

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      params.URI,
					MIMEType: "application/json",
					Text:     string(jsonData),
				},
			},
		}, nil
	}
}

func logInfo(msg string) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP INFO] %s", msg)
	}
}

func logToolCall(toolName string, params interface{}) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP TOOL] %s called with params: %+v", toolName, params)
	}
}
