package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"edu2job/config"
	"edu2job/db"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
}

// run prints recorded predictions as a JSON array, newest first.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML or TOML config file")
	limit := fs.Int("limit", 50, "maximum number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.History.DSN == "" {
		return errors.New("history is disabled: set history.dsn")
	}

	history, err := db.OpenHistory(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer history.Close()

	entries, err := history.List(ctx, *limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []db.Entry{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
