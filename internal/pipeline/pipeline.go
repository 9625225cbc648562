// Package pipeline orchestrates a full run: retrieve case reports, scrape
// their figures, generate questions, and export results.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/casereports-engine/internal/export"
	"github.com/pdiddy/casereports-engine/internal/scrape"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

// Retriever finds case reports to process.
type Retriever interface {
	CaseReportsByDateRange(ctx context.Context, from, to time.Time) ([]types.CaseReport, error)
	ExampleCaseReports(ctx context.Context, count int) ([]types.CaseReport, error)
}

// FigureScraper extracts figures from one article.
type FigureScraper interface {
	ScrapeFigures(ctx context.Context, pmcid string) ([]types.FigureRecord, error)
}

// Questioner turns a figure into a question. Implementations never fail
// the run; a skipped or failed question is an empty MCQ.
type Questioner interface {
	Generate(ctx context.Context, report types.CaseReport, fig types.FigureRecord) types.MCQ
}

// Options selects what one run processes.
type Options struct {
	// From and To bound the publication-date query. Ignored when Example
	// is set.
	From, To time.Time

	// Example runs against a small fixed-size sample instead of a date
	// range.
	Example bool

	// ExampleCount is the sample size for Example runs.
	ExampleCount int
}

// Result is everything a completed run produced.
type Result struct {
	Rows        []types.Row
	Summary     export.Summary
	CSVPath     string
	SummaryPath string
}

// Pipeline wires the stages together. Construct with New.
type Pipeline struct {
	retriever Retriever
	scraper   FigureScraper
	questions Questioner
	w         io.Writer
}

// New builds a Pipeline. questions may be nil when question generation is
// disabled; w may be nil to discard progress output.
func New(retriever Retriever, scraper FigureScraper, questions Questioner, w io.Writer) *Pipeline {
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{retriever: retriever, scraper: scraper, questions: questions, w: w}
}

// Run executes the full pipeline and writes results into the session
// directories. A paper that fails to scrape is counted and skipped; only
// retrieval failure, an empty result set, or context cancellation abort
// the run.
func (p *Pipeline) Run(ctx context.Context, opts Options, session export.Session) (Result, error) {
	reports, err := p.retrieve(ctx, opts)
	if err != nil {
		return Result{}, fmt.Errorf("retrieving case reports: %w", err)
	}
	if len(reports) == 0 {
		return Result{}, fmt.Errorf("no case reports found for the given criteria")
	}
	fmt.Fprintf(p.w, "found %d case reports\n", len(reports))

	summary := export.NewSummary()
	if !opts.Example {
		summary.StartDate = opts.From.Format("2006-01-02")
		summary.EndDate = opts.To.Format("2006-01-02")
	}

	var rows []types.Row

	for i, report := range reports {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		fmt.Fprintf(p.w, "[%d/%d] processing %s\n", i+1, len(reports), report.PMCID)

		figures, err := p.scraper.ScrapeFigures(ctx, report.PMCID)
		if err != nil {
			fmt.Fprintf(p.w, "failed  %s: %v\n", report.PMCID, err)
			summary.PapersFailed++
			continue
		}
		summary.PapersProcessed++

		for n, fig := range figures {
			row := types.Row{
				Report:       report,
				Figure:       fig,
				FigureNumber: n + 1,
			}
			if p.questions != nil {
				row.MCQ = p.questions.Generate(ctx, report, fig)
				if !row.MCQ.IsEmpty() {
					summary.MCQsGenerated++
				}
			}
			if scrape.Classify(fig.ImageURL) == scrape.ClassDirectAsset {
				summary.DirectAssetURLs++
			}
			rows = append(rows, row)
		}
		summary.FiguresExtracted += len(figures)

		if _, err := export.WriteMetadata(report, figures, session.Metadata); err != nil {
			fmt.Fprintf(p.w, "metadata %s: %v\n", report.PMCID, err)
		}
	}

	if len(rows) == 0 {
		return Result{Summary: summary}, fmt.Errorf("no figures were extracted")
	}

	fmt.Fprintf(p.w, "extracted %d figures, %d with direct image URLs\n",
		summary.FiguresExtracted, summary.DirectAssetURLs)

	csvPath, err := export.WriteCSV(rows, session.Outputs)
	if err != nil {
		return Result{Summary: summary}, fmt.Errorf("writing results: %w", err)
	}
	summary.CSVPath = csvPath

	summaryPath, err := export.WriteSummary(summary, session.Outputs)
	if err != nil {
		return Result{Summary: summary}, fmt.Errorf("writing summary: %w", err)
	}

	fmt.Fprintf(p.w, "results saved to %s\n", csvPath)

	return Result{
		Rows:        rows,
		Summary:     summary,
		CSVPath:     csvPath,
		SummaryPath: summaryPath,
	}, nil
}

func (p *Pipeline) retrieve(ctx context.Context, opts Options) ([]types.CaseReport, error) {
	if opts.Example {
		return p.retriever.ExampleCaseReports(ctx, opts.ExampleCount)
	}
	return p.retriever.CaseReportsByDateRange(ctx, opts.From, opts.To)
}
