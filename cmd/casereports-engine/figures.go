package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/casereports-engine/internal/scrape"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

var figuresCmd = &cobra.Command{
	Use:   "figures [pmcids...]",
	Short: "Scrape figures from specific PMC articles",
	Long: `Figures scrapes the figure list of one or more PMC articles and prints
each figure's label, caption, and resolved image URL. Useful for spot
checks before a full pipeline run.`,
	RunE: runFigures,
}

func init() {
	figuresCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	figuresCmd.Flags().Duration("figure-delay", 0, "pause before each figure page fetch (default 300ms)")

	rootCmd.AddCommand(figuresCmd)
}

func runFigures(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PMC identifiers (e.g. PMC1234567)")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	delay, _ := cmd.Flags().GetDuration("figure-delay")

	cfg := types.ScrapeConfig{
		HTTPConfig:      types.HTTPConfig{Timeout: timeout},
		FigurePageDelay: delay,
	}
	scraper := scrape.New(&http.Client{Timeout: cfg.Timeout}, cfg, nil, os.Stderr)

	failed := 0
	for _, pmcid := range args {
		pmcid = scrape.NormalizePMCID(pmcid)

		figures, err := scraper.ScrapeFigures(cmd.Context(), pmcid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", pmcid, err)
			failed++
			continue
		}

		fmt.Printf("%s: %d figure(s)\n", pmcid, len(figures))
		for _, fig := range figures {
			fmt.Printf("  %s  %s\n", fig.FigureID, fig.Label)
			if fig.Caption != "" {
				fmt.Printf("    caption: %s\n", fig.Caption)
			}
			fmt.Printf("    image:   %s\n", fig.ImageURL)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d article(s) failed", failed)
	}
	return nil
}
