package main

import (
	"fmt"
	"os"

	"github.com/compass-oss/compass/internal/cli"
	compassErrors "github.com/compass-oss/compass/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if suggestion := compassErrors.Suggestion(err); suggestion != "" {
			fmt.Fprintln(os.Stderr, "  →", suggestion)
		}
		os.Exit(1)
	}
}
