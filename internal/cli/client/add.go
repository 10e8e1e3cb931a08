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

// CreateItemRequest represents the create item API request.
type CreateItemRequest struct {
	CollectionID string   `json:"collection_id,omitempty"`
	Type         string   `json:"type,omitempty"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Summary      string   `json:"summary,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Item represents a knowledge item from the API.
type Item struct {
	ID           string   `json:"id"`
	WorkspaceID  string   `json:"workspace_id"`
	CollectionID string   `json:"collection_id,omitempty"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Title        string   `json:"title"`
	Content      string   `json:"content,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// binaryExtensions are uploaded for server-side extraction rather than
// read as text locally.
var binaryExtensions = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html": "text/html",
	".htm":  "text/html",
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		itemType   string
		title      string
		summary    string
		collection string
		tags       []string
	)

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Add a knowledge item from a file or stdin",
		Long: `Add a knowledge item.

Text and markdown files are stored synchronously and are searchable as soon
as the command returns. Binary documents (PDF, DOCX, HTML) are uploaded and
processed asynchronously; use 'vantage get <id>' to check progress.

Examples:
  # Add a markdown note
  vantage add notes.md --title "Deploy runbook"

  # Add from stdin
  echo "Always use keyset pagination" | vantage add --title "Pagination rule"

  # Upload a PDF for extraction and enrichment
  vantage add report.pdf --collection col-123`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAdd(file, itemType, title, summary, collection, tags, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&itemType, "type", "t", "", "Item type (document, note, snippet, reference)")
	cmd.Flags().StringVar(&title, "title", "", "Title (defaults to file name)")
	cmd.Flags().StringVar(&summary, "summary", "", "Summary (optional)")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection ID")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma-separated tags")

	return cmd
}

func runAdd(file, itemType, title, summary, collection string, tags []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if file != "" {
		if contentType, ok := binaryExtensions[strings.ToLower(filepath.Ext(file))]; ok {
			return runUpload(api, file, contentType, title, collection, outputJSON)
		}
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

	if title == "" {
		return fmt.Errorf("--title is required when reading from stdin")
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content provided")
	}

	req := CreateItemRequest{
		CollectionID: collection,
		Type:         itemType,
		Title:        title,
		Content:      content,
		Summary:      summary,
		Tags:         tags,
	}

	resp, err := api.Post("/items", req)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	var item Item
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printItemCreated(&item, outputJSON)
	return nil
}

func runUpload(api *APIClient, file, contentType, title, collection string, outputJSON bool) error {
	fields := map[string]string{
		"collection_id": collection,
		"title":         title,
	}

	resp, err := api.UploadFile("/items/upload", file, contentType, fields)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var item Item
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded %s for processing\n", filepath.Base(file))
		fmt.Printf("ID: %s\n", item.ID)
		fmt.Printf("Status: %s\n", item.Status)
	}

	return nil
}

func printItemCreated(item *Item, outputJSON bool) {
	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
		return
	}
	fmt.Printf("Added item: %s\n", item.ID)
	fmt.Printf("Title: %s\n", item.Title)
	fmt.Printf("Status: %s\n", item.Status)
}
