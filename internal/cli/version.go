package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"
)

// These are set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("compass %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  Go version: %s\n", goruntime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
	},
}
