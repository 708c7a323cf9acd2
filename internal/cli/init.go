package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize a compass workspace",
	Long:  "Create the compass.yaml config and the local memory directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	projectName := "."
	if len(args) > 0 {
		projectName = args[0]
	}

	if projectName != "." {
		if err := os.MkdirAll(projectName, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	dirs := []string{
		".compass",
		".compass/logs",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(projectName, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfgPath := filepath.Join(projectName, "compass.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("compass.yaml already exists in %s", projectName)
	}

	content := `name: compass
version: "0.1.0"

provider:
  name: anthropic
  model: claude-sonnet-4-20250514
  api_key: ${env.ANTHROPIC_API_KEY}

storage:
  driver: sqlite
  path: .compass/memory.db

memory:
  enabled: true
  user_id: default_user
  similarity_threshold: 0.7
  context_cache_size: 64

logging:
  level: info
  format: text
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write compass.yaml: %w", err)
	}

	gitignore := filepath.Join(projectName, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		os.WriteFile(gitignore, []byte(".compass/\n"), 0644)
	}

	fmt.Printf("Initialized compass workspace in %s\n", projectName)
	fmt.Println("Next: set ANTHROPIC_API_KEY and run 'compass chat'")
	return nil
}
