// Package main implements the gridb binary, an interactive SQLite
// editor driven by line commands on stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gridb/gridb/internal/config"
	"github.com/gridb/gridb/internal/console"
	"github.com/gridb/gridb/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dbPath      string
		pageSize    int
		logLevel    string
		logFormat   string
		exportDir   string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dbPath, "db", "", "Database file to open on startup")
	flag.IntVar(&pageSize, "page-size", 0, "Rows per table page")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "", "Log format: text, json")
	flag.StringVar(&exportDir, "export-dir", "", "Directory export files are written to")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gridb - Interactive SQLite Editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gridb [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gridb --db app.db\n")
		fmt.Fprintf(os.Stderr, "  gridb --db app.db --page-size 200\n")
		fmt.Fprintf(os.Stderr, "  gridb --config /etc/gridb/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GRIDB_PAGE_SIZE      Rows per table page\n")
		fmt.Fprintf(os.Stderr, "  GRIDB_BUSY_TIMEOUT   Lock wait bound, e.g. 5s\n")
		fmt.Fprintf(os.Stderr, "  GRIDB_LOG_LEVEL      Log level (debug, info, warn, error)\n")
		fmt.Fprintf(os.Stderr, "  GRIDB_LOG_FORMAT     Log format (text, json)\n")
		fmt.Fprintf(os.Stderr, "  GRIDB_EXPORT_DIR     Directory export files are written to\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("gridb version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, pageSize, logLevel, logFormat, exportDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sink := logging.NewSlogSink(os.Stderr,
		logging.ParseLevel(cfg.Log.Level),
		logging.ParseFormat(cfg.Log.Format))

	c := console.New(cfg, sink, os.Stdout)
	defer c.Close()

	ctx := context.Background()
	if dbPath != "" {
		c.Execute(ctx, "open "+dbPath)
	}

	if err := c.Run(ctx, os.Stdin); err != nil {
		log.Fatalf("Input error: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and command
// line flags, in rising priority.
func loadConfig(configFile string, pageSize int, logLevel, logFormat, exportDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	return cfg, cfg.Validate()
}
