package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/regproc/internal/inventory"
	"github.com/mevzuatgpt/regproc/internal/pipeline"
	"github.com/mevzuatgpt/regproc/internal/scraper"
)

var scanCmd = &cobra.Command{
	Use:   "scan <institution-url>",
	Short: "List an institution page and report which documents are new",
	Long: `Scan fetches a KAYSİS institution page, lists its documents, and compares
them against the portal and metadata inventories. Only an exact normalized
title match counts as existing; similar titles are reported for review.

Example:
  regproc scan https://kms.kaysis.gov.tr/Home/Kurum/22620739`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	scanner := &pipeline.Scanner{Scraper: scraper.New(cfg.Scraper)}
	if cfg.PortalAPI.BaseURL != "" {
		scanner.Portal = inventory.NewPortalClient(cfg.PortalAPI)
	}
	if cfg.Mongo.URI != "" {
		ms, err := inventory.NewMetadataStore(ctx, cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("metadata inventory unavailable")
		} else {
			defer ms.Close(ctx)
			scanner.Metadata = ms
		}
	}

	report, err := scanner.Scan(ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
