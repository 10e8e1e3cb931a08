package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vantagehq/vantage/internal/cli"
	"github.com/vantagehq/vantage/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vantaged",
		Short: "Vantage daemon",
		Long:  "Vantage daemon for running the API server and the ingest worker",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
