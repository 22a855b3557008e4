package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

const version = "0.2.0"

var (
	versionOption = flag.Bool("version", false, "typedump version")
	configOption  = flag.String("config", "", "path to the config file (overrides discovery)")
	checkOption   = flag.String("check", "", "validate an existing export directory instead of extracting")
)

func main() {
	flag.Parse()

	if *versionOption {
		fmt.Printf("typedump v%s\n", version)

		return
	}

	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
