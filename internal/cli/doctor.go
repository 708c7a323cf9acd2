package cli

import (
	"fmt"
	"os"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/compass-oss/compass/internal/config"
	"github.com/compass-oss/compass/internal/memory"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and dependencies",
	Long:  "Validate that configuration, storage, and the API key are properly set up.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("compass doctor — checking your environment")
	fmt.Println()
	allOK := true

	// 1. Go version
	fmt.Printf("  Go version: %s", goruntime.Version())
	fmt.Println(" ✓")

	// 2. OS/Arch
	fmt.Printf("  Platform:   %s/%s", goruntime.GOOS, goruntime.GOARCH)
	fmt.Println(" ✓")

	// 3. API key
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey != "" {
		fmt.Printf("  API key:    set (***%s)", apiKey[max(0, len(apiKey)-4):])
		fmt.Println(" ✓")
	} else {
		fmt.Println("  API key:    NOT SET ✗")
		fmt.Println("    → Set ANTHROPIC_API_KEY environment variable")
		allOK = false
	}

	// 4. Configuration
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Println("  Config:     INVALID ✗")
		fmt.Printf("    → %v\n", err)
		allOK = false
	} else {
		fmt.Printf("  Config:     %s v%s", cfg.Name, cfg.Version)
		fmt.Println(" ✓")
	}

	// 5. Memory store
	if cfg != nil {
		store, err := memory.NewStore(cfg.Storage.Driver, cfg.Storage.Path)
		if err != nil {
			fmt.Printf("  Memory DB:  FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			fmt.Printf("  Memory DB:  %s (%s)", cfg.Storage.Driver, cfg.Storage.Path)
			fmt.Println(" ✓")
			if stats, err := store.Stats(cfg.Memory.UserID); err == nil {
				fmt.Printf("  Memories:   %d stored ✓\n", stats.Total)
			}
			store.Close()
		}
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}

	return nil
}
