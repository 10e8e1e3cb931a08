package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// SuggestRequest represents the category suggestion API request.
type SuggestRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// SuggestResponse represents the category suggestion API response.
type SuggestResponse struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Confidence float32  `json:"confidence"`
}

// SuggestCmd creates the suggest command.
func SuggestCmd() *cobra.Command {
	var (
		title    string
		itemType string
	)

	cmd := &cobra.Command{
		Use:   "suggest [file]",
		Short: "Suggest categories and tags for content",
		Long:  "Asks the model which of the workspace's collections fit the given content, and which tags to apply.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runSuggest(file, title, itemType, outputJSON)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the content")
	cmd.Flags().StringVarP(&itemType, "type", "t", "", "Item type")

	return cmd
}

func runSuggest(file, title, itemType string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var content string
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		content = string(data)
		if title == "" {
			title = filepath.Base(file)
		}
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content provided")
	}

	resp, err := api.Post("/search/suggest", SuggestRequest{
		Title:   title,
		Content: content,
		Type:    itemType,
	})
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}

	var suggestion SuggestResponse
	if err := json.Unmarshal(resp.Data, &suggestion); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(suggestion, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(suggestion.Categories) == 0 && len(suggestion.Tags) == 0 {
		fmt.Println("No suggestions.")
		return nil
	}

	if len(suggestion.Categories) > 0 {
		fmt.Printf("Categories: %s\n", strings.Join(suggestion.Categories, ", "))
	}
	if len(suggestion.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(suggestion.Tags, ", "))
	}
	fmt.Printf("Confidence: %.2f\n", suggestion.Confidence)

	return nil
}
