package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/mevzuatgpt/regproc/internal/config"
	logpkg "github.com/mevzuatgpt/regproc/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "regproc",
	Short: "Scan regulation portals and split PDFs into sections",
	Long: `regproc processes Turkish regulation PDFs: it checks text coverage,
runs OCR when needed, splits documents into logical sections with AI-generated
metadata, and deduplicates against the portal inventories.

Usage:
  regproc scan <institution-url>
  regproc process <pdf-path-or-url>`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = cfgpkg.FromEnv()
		return logpkg.Init(logpkg.Options{
			Level:  cfg.Logging.Level,
			Pretty: true,
			File:   cfg.Logging.File,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logpkg.Close()
	},
}

// cfg is loaded once in PersistentPreRunE and shared by the subcommands.
var cfg cfgpkg.Config

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
