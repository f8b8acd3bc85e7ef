package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/cooper/cmd"
	"github.com/jonesrussell/cooper/cmd/common"
)

func main() {
	if err := cmd.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(common.ExitCode(err))
	}
}
