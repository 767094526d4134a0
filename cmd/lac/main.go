package main

import (
	"fmt"
	"os"

	"github.com/vulntor/lac/cmd/lac/commands"
	"github.com/vulntor/lac/pkg/signature"
)

// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Invalid usage (missing or conflicting catalog source)
//   - 3: Invalid catalog (validation, empty, unsupported format or schema)
//   - 7: Catalog cache unavailable
func main() {
	command := commands.NewCommand()

	if err := command.Execute(); err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(signature.ExitCode(err))
	}
}
