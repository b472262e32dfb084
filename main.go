package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/go-sallagate/sallagate/internal/bootstrap"
	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	cfg := config.Load()

	if err := bootstrap.Run(context.Background(), cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
