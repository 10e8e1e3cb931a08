package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <item_id>",
		Short:   "Get a knowledge item by ID",
		Long:    "Retrieves a knowledge item by its ID and displays the full content.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(itemID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/items/%s", itemID))
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}

	var item Item
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse item: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Title: %s\n", item.Title)
		fmt.Printf("Type: %s\n", item.Type)
		fmt.Printf("Status: %s\n", item.Status)
		if item.CollectionID != "" {
			fmt.Printf("Collection: %s\n", item.CollectionID)
		}
		if len(item.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(item.Tags, ", "))
		}
		if item.Summary != "" {
			fmt.Printf("Summary: %s\n", item.Summary)
		}
		fmt.Printf("Created: %s\n", item.CreatedAt)
		fmt.Printf("Updated: %s\n", item.UpdatedAt)
		fmt.Println()
		fmt.Println("--- Content ---")
		fmt.Println(item.Content)
	}

	return nil
}
