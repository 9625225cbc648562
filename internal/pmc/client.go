// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pmc retrieves case-report article metadata from the NCBI
// E-utilities API (esearch, esummary, efetch).
package pmc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/pdiddy/casereports-engine/internal/httputil"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	esearchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	esummaryURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
	efetchURL   = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

const (
	defaultMaxPapers = 20
	defaultUserAgent = "casereports-engine/0.1"
)

// Cache memoizes article metadata across runs so repeated retrievals skip
// the esummary/efetch round trips. Implementations must treat a miss as
// (zero value, false).
type Cache interface {
	Get(pmcid string) (types.CaseReport, bool)
	Put(report types.CaseReport) error
}

// Client queries the E-utilities API. One Client reuses a single HTTP
// client across calls; the pacer spaces consecutive API requests.
type Client struct {
	client *http.Client
	cfg    types.RetrievalConfig
	pacer  *httputil.Pacer
	cache  Cache
	w      io.Writer
}

// NewClient returns a Client. cache may be nil to disable memoization; w
// receives progress and warnings.
func NewClient(client *http.Client, cfg types.RetrievalConfig, pacer *httputil.Pacer, cache Cache, w io.Writer) *Client {
	if cfg.MaxPapers <= 0 {
		cfg.MaxPapers = defaultMaxPapers
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = time.Second
	}
	// An API key raises the NCBI rate limit, so requests can be packed
	// closer together.
	if cfg.APIKey != "" {
		cfg.RequestDelay = cfg.RequestDelay / 2
	}
	if pacer == nil {
		pacer = &httputil.Pacer{Spacing: cfg.RequestDelay}
	}
	if w == nil {
		w = io.Discard
	}
	return &Client{client: client, cfg: cfg, pacer: pacer, cache: cache, w: w}
}

// CaseReportsByDateRange searches PMC for open-access case reports
// published between from and to (inclusive) and returns their metadata.
// Individual metadata failures are logged and skipped; the batch
// continues.
func (c *Client) CaseReportsByDateRange(ctx context.Context, from, to time.Time) ([]types.CaseReport, error) {
	query := fmt.Sprintf(`"case report"[ti] AND open access[filter] AND ("%s"[PDAT]:"%s"[PDAT])`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	return c.caseReports(ctx, query)
}

// ExampleCaseReports returns up to count recent open-access case reports
// without a date filter, for smoke-testing a configuration.
func (c *Client) ExampleCaseReports(ctx context.Context, count int) ([]types.CaseReport, error) {
	saved := c.cfg.MaxPapers
	if count > 0 {
		c.cfg.MaxPapers = count
	}
	defer func() { c.cfg.MaxPapers = saved }()

	return c.caseReports(ctx, `"case report"[ti] AND open access[filter]`)
}

func (c *Client) caseReports(ctx context.Context, query string) ([]types.CaseReport, error) {
	fmt.Fprintf(c.w, "query: %s\n", query)

	uids, err := c.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("PMC search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	fmt.Fprintf(c.w, "found %d article(s)\n", len(uids))

	var reports []types.CaseReport
	for i, uid := range uids {
		fmt.Fprintf(c.w, "  [%d/%d] PMC%s\n", i+1, len(uids), uid)

		report, err := c.Metadata(ctx, uid)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			fmt.Fprintf(c.w, "  warning: metadata for PMC%s failed: %v\n", uid, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Metadata returns the full metadata record for one article UID,
// consulting the memo cache first.
func (c *Client) Metadata(ctx context.Context, uid string) (types.CaseReport, error) {
	pmcid := "PMC" + uid
	if c.cache != nil {
		if report, ok := c.cache.Get(pmcid); ok {
			return report, nil
		}
	}

	report, err := c.summary(ctx, uid)
	if err != nil {
		return types.CaseReport{}, err
	}

	abstract, err := c.abstract(ctx, uid)
	if err != nil {
		// A missing abstract degrades the record, it does not drop it.
		fmt.Fprintf(c.w, "  warning: abstract for %s failed: %v\n", pmcid, err)
		abstract = abstractUnavailable
	}
	report.Abstract = abstract

	if c.cache != nil {
		if err := c.cache.Put(report); err != nil {
			fmt.Fprintf(c.w, "  warning: caching %s failed: %v\n", pmcid, err)
		}
	}
	return report, nil
}

// search runs esearch and returns the matching UIDs (without PMC prefix).
func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"db":      {"pmc"},
		"term":    {query},
		"retmax":  {strconv.Itoa(c.cfg.MaxPapers)},
		"retmode": {"xml"},
	}

	body, err := c.get(ctx, esearchURL, params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result esearchResult
	if err := xml.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return result.IDs, nil
}

// summary runs esummary and maps the response to a CaseReport (without
// abstract).
func (c *Client) summary(ctx context.Context, uid string) (types.CaseReport, error) {
	params := url.Values{
		"db":      {"pmc"},
		"id":      {uid},
		"retmode": {"xml"},
	}

	body, err := c.get(ctx, esummaryURL, params)
	if err != nil {
		return types.CaseReport{}, err
	}
	defer body.Close()

	var result esummaryResult
	if err := xml.NewDecoder(body).Decode(&result); err != nil {
		return types.CaseReport{}, fmt.Errorf("parsing esummary response: %w", err)
	}
	if len(result.DocSums) == 0 {
		return types.CaseReport{}, fmt.Errorf("esummary returned no document for %s", uid)
	}

	doc := result.DocSums[0]
	pmcid := "PMC" + uid

	journal := doc.item("FullJournalName")
	if journal == "" {
		journal = doc.item("Source")
	}
	pubDate := doc.item("PubDate")
	pmid := extractPMID(doc)

	report := types.CaseReport{
		PMCID:      pmcid,
		PMID:       pmid,
		Title:      doc.item("Title"),
		Journal:    journal,
		PubDate:    pubDate,
		Year:       extractYear(pubDate),
		ArticleURL: "https://www.ncbi.nlm.nih.gov/pmc/articles/" + pmcid + "/",
	}
	if pmid != "" {
		report.PubMedURL = "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
	}
	return report, nil
}

// get issues a paced, retrying GET with the standard identification
// parameters appended.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (io.ReadCloser, error) {
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/xml")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("E-utilities request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// E-utilities XML structures.

type esearchResult struct {
	IDs []string `xml:"IdList>Id"`
}

type esummaryResult struct {
	DocSums []docSum `xml:"DocSum"`
}

type docSum struct {
	ID    string        `xml:"Id"`
	Items []summaryItem `xml:"Item"`
}

type summaryItem struct {
	Name  string        `xml:"Name,attr"`
	Value string        `xml:",chardata"`
	Items []summaryItem `xml:"Item"`
}

// item returns the trimmed value of the named top-level item.
func (d docSum) item(name string) string {
	for _, it := range d.Items {
		if it.Name == name {
			return collapseText(it.Value)
		}
	}
	return ""
}

var pmidPattern = regexp.MustCompile(`(?i)pmid[:\s]*(\d+)`)

// extractPMID finds the PubMed ID inside the ArticleIds item list. It
// first looks for a nested item named "pmid", then falls back to a
// pattern match over the flattened text.
func extractPMID(doc docSum) string {
	for _, it := range doc.Items {
		if it.Name != "ArticleIds" {
			continue
		}
		if v := findNestedItem(it.Items, "pmid"); v != "" {
			return v
		}
		if m := pmidPattern.FindStringSubmatch(flattenItems(it)); m != nil {
			return m[1]
		}
	}
	return ""
}

func findNestedItem(items []summaryItem, name string) string {
	for _, it := range items {
		if it.Name == name {
			if v := collapseText(it.Value); isDigits(v) {
				return v
			}
		}
		if v := findNestedItem(it.Items, name); v != "" {
			return v
		}
	}
	return ""
}

func flattenItems(it summaryItem) string {
	out := it.Name + " " + it.Value
	for _, child := range it.Items {
		out += " " + flattenItems(child)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var yearPattern = regexp.MustCompile(`(\d{4})`)

// extractYear pulls the first four-digit year out of a free-form
// publication date string; zero when none is present.
func extractYear(pubDate string) int {
	m := yearPattern.FindStringSubmatch(pubDate)
	if m == nil {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	return year
}
