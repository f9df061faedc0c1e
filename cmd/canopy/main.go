package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/cli"
)

func main() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if sig := ctx.Signal(); sig != nil {
		fmt.Fprintf(os.Stderr, "stopped by %v\n", sig)
	}
}
