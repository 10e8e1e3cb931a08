package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ContextRequest represents the RAG context API request.
type ContextRequest struct {
	Query        string `json:"query"`
	CollectionID string `json:"collection_id,omitempty"`
}

// ContextResponse represents the RAG context API response.
type ContextResponse struct {
	Results []SearchResult `json:"results"`
	Summary string         `json:"summary"`
}

// ContextCmd creates the context command.
func ContextCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Build prompt-ready context for a query",
		Long:  "Retrieves the most relevant items and prints a summary block suitable for pasting into a prompt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runContext(args[0], collection, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Restrict to a collection")

	return cmd
}

func runContext(query, collection string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/search/context", ContextRequest{
		Query:        query,
		CollectionID: collection,
	})
	if err != nil {
		return fmt.Errorf("context retrieval failed: %w", err)
	}

	var ctxResp ContextResponse
	if err := json.Unmarshal(resp.Data, &ctxResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ctxResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if ctxResp.Summary == "" {
		fmt.Println("No relevant context found.")
		return nil
	}

	fmt.Println(ctxResp.Summary)
	if len(ctxResp.Results) > 0 {
		fmt.Println()
		fmt.Printf("Sources (%d):\n", len(ctxResp.Results))
		for _, result := range ctxResp.Results {
			fmt.Printf("  %s (%.2f) %s\n", result.Item.ID, result.Score, result.Item.Title)
		}
	}

	return nil
}
