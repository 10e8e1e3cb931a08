package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Collection represents a collection from the API.
type Collection struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CollectionCmd creates the collection command with subcommands.
func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Short:   "Manage collections",
		Aliases: []string{"collections"},
	}

	cmd.AddCommand(collectionCreateCmd())
	cmd.AddCommand(collectionListCmd())

	return cmd
}

func collectionCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCollectionCreate(args[0], description, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")

	return cmd
}

func collectionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCollectionList(outputJSON)
		},
	}
}

func runCollectionCreate(name, description string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/collections", map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	var collection Collection
	if err := json.Unmarshal(resp.Data, &collection); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(collection, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created collection: %s\n", collection.ID)
		fmt.Printf("Name: %s\n", collection.Name)
	}

	return nil
}

func runCollectionList(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/collections")
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	var collections []Collection
	if err := json.Unmarshal(resp.Data, &collections); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(collections, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(collections) == 0 {
		fmt.Println("No collections found.")
		return nil
	}

	for _, c := range collections {
		fmt.Printf("%s  %s", c.ID, c.Name)
		if c.Description != "" {
			fmt.Printf("  (%s)", c.Description)
		}
		fmt.Println()
	}

	return nil
}
