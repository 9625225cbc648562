package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/casereports-engine/internal/export"
	"github.com/pdiddy/casereports-engine/internal/mcq"
	"github.com/pdiddy/casereports-engine/internal/pipeline"
	"github.com/pdiddy/casereports-engine/internal/pmc"
	"github.com/pdiddy/casereports-engine/internal/scrape"
	"github.com/pdiddy/casereports-engine/internal/secrets"
	"github.com/pdiddy/casereports-engine/internal/store"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxPapers = 20
	exampleBatchSize = 10
	defaultOutputDir = "outputs"
	defaultCachePath = "cache/case_reports.db"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Retrieve case reports, scrape figures, and generate MCQs",
	Long: `Run executes the full pipeline: find open-access case reports on PMC for
a publication period, scrape every figure with its label and caption,
resolve direct image URLs, generate one multiple-choice question per
figure, and save everything into a session directory.

The period is one of --month/--year, --from/--to, or --example.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().Int("month", 0, "publication month (1-12, requires --year)")
	runCmd.Flags().Int("year", 0, "publication year (requires --month)")
	runCmd.Flags().String("from", "", "period start (YYYY-MM-DD, requires --to)")
	runCmd.Flags().String("to", "", "period end (YYYY-MM-DD)")
	runCmd.Flags().Bool("example", false, "process a small recent sample instead of a period")
	runCmd.Flags().Int("max-papers", defaultMaxPapers, "maximum number of papers to retrieve")
	runCmd.Flags().String("email", "", "NCBI contact email (required)")
	runCmd.Flags().String("api-key", "", "NCBI API key")
	runCmd.Flags().String("openai-key", "", "OpenAI API key for MCQ generation")
	runCmd.Flags().String("output-dir", defaultOutputDir, "base directory for session output")
	runCmd.Flags().String("cache", defaultCachePath, "SQLite metadata cache path (empty disables)")
	runCmd.Flags().Bool("disable-mcq", false, "skip MCQ generation")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	opts, err := parsePeriod(cmd)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	email = secrets.Default(loadedSecrets, secrets.KeyNCBIEmail, email)
	if email == "" {
		email = viper.GetString("email")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("a valid NCBI contact email is required (--email, config, or .secrets/%s)", secrets.KeyNCBIEmail)
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secrets.Default(loadedSecrets, secrets.KeyNCBIAPIKey, apiKey)

	openAIKey, _ := cmd.Flags().GetString("openai-key")
	openAIKey = secrets.Default(loadedSecrets, secrets.KeyOpenAI, openAIKey)
	if openAIKey == "" {
		openAIKey = os.Getenv("OPENAI_API_KEY")
	}

	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	cachePath, _ := cmd.Flags().GetString("cache")
	disableMCQ, _ := cmd.Flags().GetBool("disable-mcq")

	session, err := export.NewSession(outputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Session directory: %s\n", session.Root)

	logFile, err := os.Create(filepath.Join(session.Logs, "pipeline.log"))
	if err != nil {
		return fmt.Errorf("creating session log: %w", err)
	}
	defer logFile.Close()
	progress := io.MultiWriter(os.Stdout, logFile)

	var cache pmc.Cache
	if cachePath != "" {
		st, err := store.Open(cachePath)
		if err != nil {
			return fmt.Errorf("opening metadata cache: %w", err)
		}
		defer st.Close()
		cache = st
	}

	retrievalCfg := types.RetrievalConfig{
		HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout},
		Email:      email,
		APIKey:     apiKey,
		MaxPapers:  maxPapers,
	}
	retriever := pmc.NewClient(&http.Client{Timeout: defaultTimeout}, retrievalCfg, nil, cache, progress)

	scraper := scrape.New(&http.Client{Timeout: defaultTimeout}, types.ScrapeConfig{}, nil, progress)

	var questions pipeline.Questioner
	if !disableMCQ && openAIKey != "" {
		mcqCfg := types.MCQConfig{Enabled: true, APIKey: openAIKey}
		if backend := mcq.NewOpenAIBackend(mcqCfg); backend != nil {
			questions = mcq.New(backend, mcqCfg)
		}
	}
	if questions == nil {
		fmt.Fprintln(os.Stderr, "MCQ generation disabled")
	}

	p := pipeline.New(retriever, scraper, questions, progress)

	result, err := p.Run(cmd.Context(), opts, session)
	if err != nil {
		return err
	}

	fmt.Printf("Papers processed: %d (%d failed)\n", result.Summary.PapersProcessed, result.Summary.PapersFailed)
	fmt.Printf("Figures extracted: %d\n", result.Summary.FiguresExtracted)
	fmt.Printf("MCQs generated: %d\n", result.Summary.MCQsGenerated)
	fmt.Printf("Direct image URLs: %d/%d\n", result.Summary.DirectAssetURLs, result.Summary.FiguresExtracted)
	fmt.Printf("Output file: %s\n", result.CSVPath)
	return nil
}

// parsePeriod turns the mutually exclusive period flags into pipeline options.
func parsePeriod(cmd *cobra.Command) (pipeline.Options, error) {
	example, _ := cmd.Flags().GetBool("example")
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	modes := 0
	if example {
		modes++
	}
	if month != 0 || year != 0 {
		modes++
	}
	if fromStr != "" || toStr != "" {
		modes++
	}
	if modes != 1 {
		return pipeline.Options{}, fmt.Errorf("specify exactly one of --example, --month/--year, or --from/--to")
	}

	if example {
		return pipeline.Options{Example: true, ExampleCount: exampleBatchSize}, nil
	}

	if month != 0 || year != 0 {
		if month < 1 || month > 12 {
			return pipeline.Options{}, fmt.Errorf("--month must be 1-12")
		}
		if year == 0 {
			return pipeline.Options{}, fmt.Errorf("--year is required with --month")
		}
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, -1)
		return pipeline.Options{From: from, To: to}, nil
	}

	if fromStr == "" || toStr == "" {
		return pipeline.Options{}, fmt.Errorf("--from and --to must be given together")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("invalid --from date %q: use YYYY-MM-DD", fromStr)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("invalid --to date %q: use YYYY-MM-DD", toStr)
	}
	if to.Before(from) {
		return pipeline.Options{}, fmt.Errorf("--to must not be before --from")
	}
	return pipeline.Options{From: from, To: to}, nil
}
