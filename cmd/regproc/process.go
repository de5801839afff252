package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/bunny"
	"github.com/mevzuatgpt/regproc/internal/inventory"
	"github.com/mevzuatgpt/regproc/internal/pipeline"
)

var (
	flagOutputDir string
	flagNoAI      bool
	flagNoUpload  bool
)

var processCmd = &cobra.Command{
	Use:   "process <pdf-path-or-url>",
	Short: "Split one PDF into sections with metadata",
	Long: `Process runs the full pipeline on a single document: coverage analysis,
OCR when needed, sectioning, metadata generation, splitting, and upload.

Examples:
  regproc process ./mevzuat.pdf
  regproc process https://kms.kaysis.gov.tr/Dokuman/12345 --output_dir ./out
  regproc process ./mevzuat.pdf --no-ai --no-upload`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: OUTPUT_DIR or pdf_output)")
	processCmd.Flags().BoolVar(&flagNoAI, "no-ai", false, "Skip AI, use equal-split sectioning and deterministic metadata")
	processCmd.Flags().BoolVar(&flagNoUpload, "no-upload", false, "Keep results local, skip CDN and portal uploads")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}

	deps := pipeline.Dependencies{Config: cfg}
	if !flagNoAI && cfg.AI.APIKey != "" {
		deps.AI = ai.NewDeepSeekClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.RequestTimeout)
	}
	if !flagNoUpload {
		if cfg.Bunny.APIKey != "" {
			deps.CDN = bunny.NewClient(cfg.Bunny)
		}
		if cfg.PortalAPI.BaseURL != "" {
			deps.Portal = inventory.NewPortalClient(cfg.PortalAPI)
		}
	}

	res, err := pipeline.New(deps).Process(context.Background(), uuid.NewString(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
