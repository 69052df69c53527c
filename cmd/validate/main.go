// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// validate checks an embyplay YAML configuration file.
//
// Usage:
//
//	validate -f config.yaml
//	validate --file config.yaml --verify-ledger
//
// Exit codes:
//   - 0: Configuration is valid
//   - 1: Configuration is invalid (parse, validation or ledger integrity error)
//   - 2: Usage error (missing required flag)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ManuGH/embyplay/internal/config"
	"github.com/ManuGH/embyplay/internal/persistence/sqlite"
	buildinfo "github.com/ManuGH/embyplay/internal/version"
)

var Version = buildinfo.Version

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var showVersion, verifyLedger bool
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&verifyLedger, "verify-ledger", false, "also run an integrity check on an existing ledger database")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, Version)
		return 0
	}

	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Usage:")
		_, _ = fmt.Fprintln(stderr, "  validate -f config.yaml")
		_, _ = fmt.Fprintln(stderr, "  validate --file config.yaml")
		return 2
	}

	// Strict YAML parsing
	cfg, err := config.NewLoader(file, Version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", file, err)
		return 1
	}

	if err := config.Validate(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "Validation error in %s:\n  %v\n", file, err)
		return 1
	}

	if verifyLedger && cfg.Ledger.Enabled {
		if _, err := os.Stat(cfg.Ledger.Path); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			issues, err := sqlite.VerifyIntegrity(ctx, cfg.Ledger.Path, "quick")
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "Ledger check failed for %s:\n  %v\n", cfg.Ledger.Path, err)
				return 1
			}
			if issues != nil {
				_, _ = fmt.Fprintf(stderr, "Ledger %s is corrupt:\n", cfg.Ledger.Path)
				for _, issue := range issues {
					_, _ = fmt.Fprintf(stderr, "  - %s\n", issue)
				}
				return 1
			}
		}
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", file)
	return 0
}
