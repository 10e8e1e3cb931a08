package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vantagehq/vantage/internal/cli"
	"github.com/vantagehq/vantage/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vantage",
		Short: "Vantage CLI - Workspace-scoped knowledge retrieval",
		Long: `Vantage CLI provides commands to manage and search a knowledge workspace.

Environment variables:
  VANTAGE_WORKSPACE_ID   Workspace to operate in (required)
  VANTAGE_API_URL        API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("workspace", "", "Workspace ID (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.ContextCmd())
	rootCmd.AddCommand(client.SuggestCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.CollectionCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
