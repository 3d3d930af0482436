// Package main is the entry point for the giji importer.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/opentelekomcloud/giji/cmd"
	"github.com/opentelekomcloud/giji/internal/logging"
)

func main() {
	// A missing .env file is fine; production injects everything through
	// the environment.
	if err := godotenv.Load(); err == nil {
		logging.Debug("loaded configuration from .env file")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Info("starting giji", "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
