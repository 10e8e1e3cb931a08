package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	vantageDir = ".vantage"
	configFile = "config.yaml"
	envFile    = ".env"
)

type Config struct {
	WorkspaceID string `json:"workspace_id" yaml:"workspace_id"`
}

func InitCmd() *cobra.Command {
	var workspaceID string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a vantage workspace",
		Long: `Creates the .vantage/ directory, config.yaml, and .env pointing at a workspace.

Workspaces are implicit: any ID becomes a workspace the first time an item
is stored under it. If --workspace is not given, a fresh ID is generated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(workspaceID, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace ID (generated if not provided)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(workspaceID, apiURL string, outputJSON bool) error {
	if _, err := os.Stat(vantageDir); err == nil {
		return fmt.Errorf(".vantage directory already exists")
	}

	_ = godotenv.Load()
	if workspaceID == "" {
		workspaceID = os.Getenv(envWorkspaceID)
	}
	if workspaceID == "" {
		workspaceID = uuid.NewString()
	}
	workspaceID = strings.TrimSpace(workspaceID)

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	api, err := NewAPIClientWithConfig(workspaceID, apiURL)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("API not reachable at %s: %w", apiURL, err)
	}

	envData := fmt.Sprintf("VANTAGE_WORKSPACE_ID=%s\nVANTAGE_API_URL=%s\n", workspaceID, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	if err := os.MkdirAll(vantageDir, 0755); err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to create .vantage directory: %w", err)
	}

	configPath := filepath.Join(vantageDir, configFile)
	configData := fmt.Sprintf("workspace_id: %s\n", workspaceID)
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		return fmt.Errorf("failed to create config.yaml: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":      true,
			"workspace_id": workspaceID,
			"config":       configPath,
			"env":          envFile,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Initialized vantage workspace\n")
		fmt.Printf("Workspace ID: %s\n", workspaceID)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}

// LoadConfig reads the config from .vantage/config.yaml.
func LoadConfig() (*Config, error) {
	configPath := filepath.Join(vantageDir, configFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not a vantage workspace (run 'vantage init' first)")
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Simple YAML parsing for single field
	var config Config
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "workspace_id: ") {
			config.WorkspaceID = strings.TrimSpace(strings.TrimPrefix(line, "workspace_id: "))
			break
		}
	}

	if config.WorkspaceID == "" {
		return nil, fmt.Errorf("invalid config: workspace_id not found")
	}

	return &config, nil
}
