// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape extracts figures, captions, and direct image URLs from
// PMC article pages.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/casereports-engine/internal/httputil"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

// pmcBaseURL is the PMC article page prefix. Declared as a var so tests
// can substitute an httptest server.
var pmcBaseURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/"

const (
	defaultTimeout           = 30 * time.Second
	defaultFigurePageTimeout = 15 * time.Second
	defaultFigurePageDelay   = 300 * time.Millisecond

	// PMC serves a reduced page to clients without a browser-like agent.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Scraper fetches PMC article pages and extracts per-figure records. One
// Scraper reuses a single HTTP client across calls for connection reuse;
// it holds no other state between articles.
type Scraper struct {
	client *http.Client
	cfg    types.ScrapeConfig
	pacer  *httputil.Pacer
	w      io.Writer
}

// New returns a Scraper using client for all fetches. The pacer spaces
// out figure detail page fetches; pass nil for no spacing. Progress and
// warnings are written to w.
func New(client *http.Client, cfg types.ScrapeConfig, pacer *httputil.Pacer, w io.Writer) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.FigurePageTimeout <= 0 {
		cfg.FigurePageTimeout = defaultFigurePageTimeout
	}
	if cfg.FigurePageDelay <= 0 {
		cfg.FigurePageDelay = defaultFigurePageDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if pacer == nil {
		pacer = &httputil.Pacer{Spacing: cfg.FigurePageDelay}
	}
	if w == nil {
		w = io.Discard
	}
	return &Scraper{client: client, cfg: cfg, pacer: pacer, w: w}
}

// NormalizePMCID returns the canonical "PMC"-prefixed form of a PMC
// identifier. Normalizing an already-normalized ID is a no-op.
func NormalizePMCID(pmcid string) string {
	pmcid = strings.TrimSpace(pmcid)
	if !strings.HasPrefix(pmcid, "PMC") {
		pmcid = "PMC" + pmcid
	}
	return pmcid
}

// ArticleURL returns the canonical PMC page URL for a normalized PMCID.
func ArticleURL(pmcid string) string {
	return pmcBaseURL + pmcid + "/"
}

// figurePageURL returns the per-figure detail page URL.
func figurePageURL(pmcid, figID string) string {
	return ArticleURL(pmcid) + "figure/" + figID + "/"
}

// ScrapeFigures fetches the article page for pmcid and returns one record
// per figure found. Figures with neither a caption nor a resolved image
// are dropped. A failed article fetch returns an error; callers treat it
// as zero figures and continue with the next article. Per-figure problems
// never abort the remaining figures.
func (s *Scraper) ScrapeFigures(ctx context.Context, pmcid string) ([]types.FigureRecord, error) {
	pmcid = NormalizePMCID(pmcid)

	doc, err := s.fetchDocument(ctx, ArticleURL(pmcid), s.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("fetching article page for %s: %w", pmcid, err)
	}

	var records []types.FigureRecord
	for i, fig := range locateFigures(doc) {
		ordinal := i + 1

		figID, ok := fig.Attr("id")
		if !ok || figID == "" {
			figID = fmt.Sprintf("figure_%d", ordinal)
		}

		label := extractLabel(fig, ordinal)
		caption := extractCaption(fig)
		pageURL := figurePageURL(pmcid, figID)
		imageURL := s.resolveImageURL(ctx, fig, pmcid, figID)

		// A figure with no caption and no resolvable image carries no
		// useful signal for the output.
		if caption == "" && imageURL == "" {
			fmt.Fprintf(s.w, "  skipping figure %d of %s: no caption or image\n", ordinal, pmcid)
			continue
		}
		if imageURL == "" {
			imageURL = pageURL
		}

		records = append(records, types.FigureRecord{
			FigureID:      figID,
			Label:         label,
			Caption:       caption,
			ImageURL:      imageURL,
			FigurePageURL: pageURL,
		})
	}
	return records, nil
}

// fetchDocument GETs url with the given timeout and parses the response
// body. Non-200 statuses are errors.
func (s *Scraper) fetchDocument(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
