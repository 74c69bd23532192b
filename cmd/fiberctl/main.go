package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-drift/fiber/cmd/fiberctl/cmd"
)

func main() {
	if err := cmd.Execute(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
