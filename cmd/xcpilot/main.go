package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/voidws/xcpilot/internal/infrastructure/cli"
)

func main() {
	ctx := context.Background()
	opts := cli.Options{Verbose: isVerbose()}

	root, cleanup, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Flush cache state even when the command fails.
	err = root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("XCPILOT_DEBUG"), "1") || strings.EqualFold(os.Getenv("XCPILOT_DEBUG"), "true")
}
