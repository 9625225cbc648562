// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/casereports-engine/internal/httputil"
	"github.com/pdiddy/casereports-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want URLClass
	}{
		{"cdn blob jpg", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/abc/fig1.jpg", ClassDirectAsset},
		{"site blob png", "https://www.ncbi.nlm.nih.gov/pmc/blobs/abc/fig1.png", ClassDirectAsset},
		{"uppercase extension", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/abc/FIG1.JPG", ClassDirectAsset},
		{"blob path without extension", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/abc/fig1", ClassUnusable},
		{"extension without blob path", "https://www.ncbi.nlm.nih.gov/corehtml/logo.jpg", ClassGeneric},
		{"ncbi host gif", "https://www.ncbi.nlm.nih.gov/stat/img/spinner.gif", ClassGeneric},
		{"foreign host jpg", "https://example.com/pic.jpg", ClassUnusable},
		{"not a url", "not a url", ClassUnusable},
		{"empty", "", ClassUnusable},
		{"blob with query string", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/abc/f.jpeg?download=1", ClassDirectAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Any string input yields exactly one defined class.
	inputs := []string{"", " ", "\x00", "//", "/pmc/blobs/", ".jpg", "http://", "𝒰nicode.png"}
	for _, in := range inputs {
		got := Classify(in)
		if got != ClassUnusable && got != ClassGeneric && got != ClassDirectAsset {
			t.Errorf("Classify(%q) = %v, not a defined class", in, got)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"protocol-relative", "//cdn.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg"},
		{"root-relative", "/pmc/blobs/abc/fig1.jpg", "https://www.ncbi.nlm.nih.gov/pmc/blobs/abc/fig1.jpg"},
		{"absolute passthrough", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg", "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg"},
		{"bare relative", "corehtml/img/f.png", "https://www.ncbi.nlm.nih.gov/corehtml/img/f.png"},
		{"surrounding whitespace", "  /pmc/blobs/a/f.jpg ", "https://www.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeURL(tt.in); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	once := normalizeURL("//cdn.ncbi.nlm.nih.gov/pmc/blobs/a/f.jpg")
	if got := normalizeURL(once); got != once {
		t.Errorf("normalizeURL is not idempotent: %q -> %q", once, got)
	}
}

// newTestScraper points the scraper at a test server and restores the
// package base URL on cleanup.
func newTestScraper(t *testing.T, ts *httptest.Server) *Scraper {
	t.Helper()
	oldBase := pmcBaseURL
	pmcBaseURL = ts.URL + "/pmc/articles/"
	t.Cleanup(func() { pmcBaseURL = oldBase })

	cfg := types.ScrapeConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second},
		FigurePageTimeout: 5 * time.Second,
		FigurePageDelay:   time.Millisecond,
	}
	return New(ts.Client(), cfg, &httputil.Pacer{Spacing: time.Millisecond}, io.Discard)
}

func TestResolveInlineDirectAssetSkipsNetwork(t *testing.T) {
	var fetches int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	fig := parseFragment(t, `<div class="fig" id="F1"><img src="/pmc/blobs/abc/fig1.jpg"></div>`, "div.fig")
	got := s.resolveImageURL(context.Background(), fig, "PMC123", "F1")

	want := "https://www.ncbi.nlm.nih.gov/pmc/blobs/abc/fig1.jpg"
	if got != want {
		t.Errorf("resolveImageURL() = %q, want %q", got, want)
	}
	if n := atomic.LoadInt32(&fetches); n != 0 {
		t.Errorf("resolveImageURL() made %d network fetches, want 0", n)
	}
}

func TestResolveLazyLoadAttribute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	fig := parseFragment(t, `<div class="fig" id="F1"><img data-src="//cdn.ncbi.nlm.nih.gov/pmc/blobs/x/f.png"></div>`, "div.fig")
	got := s.resolveImageURL(context.Background(), fig, "PMC123", "F1")

	want := "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/x/f.png"
	if got != want {
		t.Errorf("resolveImageURL() = %q, want %q", got, want)
	}
}

func TestResolveFallsBackToFigurePage(t *testing.T) {
	figurePage := `<html><body>
		<div class="figure-viewer"><img src="/pmc/blobs/xyz/full.jpg"></div>
	</body></html>`

	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	// Inline image is a thumbnail outside the blob store, so the figure
	// page must be consulted.
	fig := parseFragment(t, `<div class="fig" id="F2"><img src="/corehtml/thumb.jpg"></div>`, "div.fig")
	got := s.resolveImageURL(context.Background(), fig, "PMC123", "F2")

	want := "https://www.ncbi.nlm.nih.gov/pmc/blobs/xyz/full.jpg"
	if got != want {
		t.Errorf("resolveImageURL() = %q, want %q", got, want)
	}
	if len(paths) != 1 || paths[0] != "/pmc/articles/PMC123/figure/F2/" {
		t.Errorf("fetched paths = %v, want one fetch of the figure detail page", paths)
	}
}

func TestResolveFigurePageFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	fig := parseFragment(t, `<div class="fig" id="F1"></div>`, "div.fig")
	if got := s.resolveImageURL(context.Background(), fig, "PMC123", "F1"); got != "" {
		t.Errorf("resolveImageURL() = %q, want empty on fetch failure", got)
	}
}

func TestScrapeFigurePageSelectorPriorityShortCircuit(t *testing.T) {
	// An element matched only by the last-resort alt-text selector comes
	// first in document order, but the blob-store src selector is higher
	// priority: its URL must win and the scan must stop there.
	figurePage := `<html><body>
		<img alt="Fig panel" src="https://www.ncbi.nlm.nih.gov/books/figure.jpg">
		<img src="https://cdn.ncbi.nlm.nih.gov/pmc/blobs/high/priority.jpg">
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	got := s.scrapeFigurePage(context.Background(), "PMC123", "F1")

	want := "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/high/priority.jpg"
	if got != want {
		t.Errorf("scrapeFigurePage() = %q, want %q", got, want)
	}
}

func TestScrapeFigurePageDocumentOrderWithinSelector(t *testing.T) {
	// Two direct assets under the same selector: the first in document
	// order wins.
	figurePage := `<html><body>
		<img src="https://cdn.ncbi.nlm.nih.gov/pmc/blobs/first/f.jpg">
		<img src="https://cdn.ncbi.nlm.nih.gov/pmc/blobs/second/f.jpg">
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	got := s.scrapeFigurePage(context.Background(), "PMC123", "F1")
	want := "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/first/f.jpg"
	if got != want {
		t.Errorf("scrapeFigurePage() = %q, want %q", got, want)
	}
}

func TestScrapeFigurePagePrefersDirectOverGeneric(t *testing.T) {
	// A generic NCBI image appears under an early selector; a direct
	// asset only matches a later one. The direct asset must still win.
	figurePage := `<html><body>
		<div class="figure-viewer"><img src="https://www.ncbi.nlm.nih.gov/corehtml/banner.jpg"></div>
		<img alt="Figure panel" src="https://cdn.ncbi.nlm.nih.gov/pmc/blobs/real/fig.png">
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	got := s.scrapeFigurePage(context.Background(), "PMC123", "F1")
	want := "https://cdn.ncbi.nlm.nih.gov/pmc/blobs/real/fig.png"
	if got != want {
		t.Errorf("scrapeFigurePage() = %q, want %q", got, want)
	}
}

func TestScrapeFigurePageGenericFallback(t *testing.T) {
	figurePage := `<html><body>
		<div class="fig-panel"><img src="/corehtml/images/figure-small.jpeg"></div>
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	got := s.scrapeFigurePage(context.Background(), "PMC123", "F1")
	want := "https://www.ncbi.nlm.nih.gov/corehtml/images/figure-small.jpeg"
	if got != want {
		t.Errorf("scrapeFigurePage() = %q, want %q", got, want)
	}
}

func TestScrapeFigurePageNothingUsable(t *testing.T) {
	figurePage := `<html><body>
		<img src="https://example.com/external.jpg">
		<img src="/pmc/blobs/abc/no-extension">
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, figurePage)
	}))
	defer ts.Close()
	s := newTestScraper(t, ts)

	if got := s.scrapeFigurePage(context.Background(), "PMC123", "F1"); got != "" {
		t.Errorf("scrapeFigurePage() = %q, want empty", got)
	}
}
