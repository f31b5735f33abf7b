package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bikedash/internal/app"
	"bikedash/internal/config"
	"bikedash/internal/exporter"
	"bikedash/pkg/contracts"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	configFile := flag.String("config", "", "path to a YAML config file (overrides "+config.EnvPrefix+"_CONFIG_FILE)")
	exportDir := flag.String("export-dir", "", "write the filtered daily and hourly tables to this directory and exit")
	exportFormat := flag.String("export-format", "csv", "export format: csv or xlsx")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.VersionString())
		return
	}

	if *configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", *configFile); err != nil {
			slog.Error("Failed to set config file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *exportDir != "" {
		format, err := exporter.ParseFormat(*exportFormat)
		if err != nil {
			slog.Error("Invalid export format", slog.String("error", err.Error()))
			os.Exit(1)
		}
		paths, err := application.ExportTables(context.Background(), *exportDir, format)
		if err != nil {
			slog.Error("Export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
