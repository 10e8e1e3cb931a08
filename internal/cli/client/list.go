package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ListResponse represents the item list API response.
type ListResponse struct {
	Items   []Item `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge items",
		Long:  "Lists workspace items newest first with cursor pagination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default 20)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	path := "/items"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No items found.")
		return nil
	}

	fmt.Printf("Found %d items:\n\n", len(listResp.Items))
	for i, item := range listResp.Items {
		fmt.Printf("%d. %s [%s]\n", i+1, item.Title, item.Type)
		fmt.Printf("   Status: %s\n", item.Status)
		if item.CollectionID != "" {
			fmt.Printf("   Collection: %s\n", item.CollectionID)
		}
		if item.UpdatedAt != "" {
			fmt.Printf("   Updated: %s\n", item.UpdatedAt)
		}
		fmt.Printf("   ID: %s\n", item.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}
