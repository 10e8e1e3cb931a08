package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query        string  `json:"query"`
	CollectionID string  `json:"collection_id,omitempty"`
	Limit        int     `json:"limit,omitempty"`
	Threshold    float32 `json:"threshold,omitempty"`
}

// SearchResult represents a scored search hit.
type SearchResult struct {
	Item    Item    `json:"item"`
	Score   float32 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		collection string
		limit      int
		threshold  float32
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search knowledge items",
		Long:  "Searches the workspace using semantic similarity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(args[0], collection, limit, threshold, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Restrict to a collection")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default 10)")
	cmd.Flags().Float32Var(&threshold, "threshold", 0, "Minimum similarity score (default 0.7)")

	return cmd
}

func runSearch(query, collection string, limit int, threshold float32, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:        query,
		CollectionID: collection,
		Limit:        limit,
		Threshold:    threshold,
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		fmt.Printf("%d. %s (%.2f)\n", i+1, result.Item.Title, result.Score)
		if result.Snippet != "" {
			fmt.Printf("   %s\n", result.Snippet)
		}
		if result.Item.CollectionID != "" {
			fmt.Printf("   Collection: %s\n", result.Item.CollectionID)
		}
		fmt.Printf("   ID: %s\n", result.Item.ID)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
