// Package export writes pipeline results to disk: the flattened figure
// CSV, a machine-readable run summary, and per-article YAML metadata.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

// Column caps applied before writing CSV cells. Abstracts and captions can
// run to several kilobytes on PMC; downstream spreadsheet tooling chokes on
// more.
const (
	maxAbstractLength = 2000
	maxCaptionLength  = 1500
)

// csvHeader is the exact output column order. Downstream consumers match
// on these names, so they are load-bearing.
var csvHeader = []string{
	"pmcid", "title", "journal", "abstract", "Figure",
	"link to paper", "link to figure", "caption", "MCQ",
	"optionA", "optionB", "optionC", "optionD", "optionE",
	"answer", "commentary", "subject", "hashtags", "difficulty_level",
}

// now is stubbed in tests to pin timestamped filenames.
var now = time.Now

// timestamp formats t the way output filenames expect.
func timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// WriteCSV writes one row per figure to a timestamped CSV in dir and
// returns the file path. Refuses an empty row set.
func WriteCSV(rows []types.Row, dir string) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no figure rows to save")
	}

	path := filepath.Join(dir, fmt.Sprintf("case_reports_figures_%s.csv", timestamp(now())))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating CSV %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return "", fmt.Errorf("writing CSV row for %s: %w", row.Report.PMCID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing CSV: %w", err)
	}

	return path, nil
}

// csvRecord flattens one row into the header's column order.
func csvRecord(row types.Row) []string {
	label := row.Figure.Label
	if label == "" {
		label = fmt.Sprintf("Figure %d", row.FigureNumber)
	}

	return []string{
		row.Report.PMCID,
		CleanText(row.Report.Title, 0),
		CleanText(row.Report.Journal, 0),
		CleanText(row.Report.Abstract, maxAbstractLength),
		CleanText(label, 0),
		row.Report.ArticleURL,
		row.Figure.ImageURL,
		CleanText(row.Figure.Caption, maxCaptionLength),
		CleanText(row.MCQ.Question, 0),
		CleanText(row.MCQ.OptionA, 0),
		CleanText(row.MCQ.OptionB, 0),
		CleanText(row.MCQ.OptionC, 0),
		CleanText(row.MCQ.OptionD, 0),
		CleanText(row.MCQ.OptionE, 0),
		row.MCQ.Answer,
		CleanText(row.MCQ.Commentary, 0),
		CleanText(row.MCQ.Subject, 0),
		CleanText(row.MCQ.Hashtags, 0),
		row.MCQ.Difficulty,
	}
}

// Summary describes one pipeline run for the JSON sidecar file.
type Summary struct {
	RunID            string    `json:"run_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	PapersProcessed  int       `json:"papers_processed"`
	PapersFailed     int       `json:"papers_failed"`
	FiguresExtracted int       `json:"figures_extracted"`
	MCQsGenerated    int       `json:"mcqs_generated"`
	DirectAssetURLs  int       `json:"direct_asset_urls"`
	CSVPath          string    `json:"csv_path,omitempty"`
}

// NewSummary returns a Summary stamped with a fresh run ID.
func NewSummary() Summary {
	return Summary{RunID: uuid.NewString(), GeneratedAt: now()}
}

// WriteSummary writes the run summary as indented JSON and returns the
// file path.
func WriteSummary(s Summary, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("processing_summary_%s.json", timestamp(now())))

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing summary %s: %w", path, err)
	}
	return path, nil
}

// paperMetadata is the per-article YAML sidecar: the report plus its
// extracted figures, without the MCQ material.
type paperMetadata struct {
	Report  types.CaseReport     `yaml:"report"`
	Figures []types.FigureRecord `yaml:"figures"`
}

// WriteMetadata writes one YAML file per article under dir, named by
// PMCID.
func WriteMetadata(report types.CaseReport, figures []types.FigureRecord, dir string) (string, error) {
	data, err := yaml.Marshal(paperMetadata{Report: report, Figures: figures})
	if err != nil {
		return "", fmt.Errorf("marshaling metadata for %s: %w", report.PMCID, err)
	}

	path := filepath.Join(dir, report.PMCID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata %s: %w", path, err)
	}
	return path, nil
}

// CleanText collapses whitespace, strips control characters that break CSV
// rows, and truncates to maxLength with a trailing ellipsis. A maxLength
// of zero means no truncation.
func CleanText(text string, maxLength int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxLength > 0 && len(text) > maxLength {
		text = text[:maxLength-3] + "..."
	}
	return text
}
