package main

import (
	"context"
	"fmt"
	"os"

	"github.com/noah-isme/pace-projection-api/internal/cli"
)

func main() {
	root := cli.NewRootCmd(&cli.App{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
