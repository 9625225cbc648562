// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pmcOrigin is the site origin used to absolutize relative image URLs.
var pmcOrigin = "https://www.ncbi.nlm.nih.gov"

// URLClass is the result of classifying a candidate image URL.
type URLClass int

const (
	// ClassUnusable means the URL is not a usable image source.
	ClassUnusable URLClass = iota
	// ClassGeneric means an NCBI-hosted raster image that is not served
	// from the blob store. Acceptable, but a direct asset is preferred.
	ClassGeneric
	// ClassDirectAsset means a stable, hotlinkable blob-store image URL.
	ClassDirectAsset
)

// directAssetMarkers are the path patterns of the PMC binary-asset store.
var directAssetMarkers = []string{
	"cdn.ncbi.nlm.nih.gov/pmc/blobs/",
	"ncbi.nlm.nih.gov/pmc/blobs/",
}

// rasterExtensions are the recognised image extensions, matched anywhere
// in the lowercased URL so query-string suffixes do not defeat the check.
var rasterExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// figurePageImageSelectors is the candidate scan order for figure detail
// pages, most specific first: blob-store path patterns, figure viewer and
// panel classes, content-area classes, bare path fragments, raster images
// inside figure blocks, and finally alt-text mentions.
var figurePageImageSelectors = []string{
	`img[src*="cdn.ncbi.nlm.nih.gov/pmc/blobs/"]`,
	`img[src*="/pmc/blobs/"]`,

	`img.figure-image`,
	`.figure-viewer img`,
	`.fig-panel img`,

	`.figure-content img`,
	`.fig-main img`,
	`img[src*="blobs"]`,

	`img[src*="cdn.ncbi.nlm.nih.gov"]`,

	`.fig img[src*=".jpg"]`,
	`.fig img[src*=".png"]`,
	`img[alt*="Figure"]`,
	`img[alt*="Fig"]`,
}

// Classify buckets a URL as direct-asset, generic NCBI image, or
// unusable. Direct-asset requires both a blob-store path marker and a
// recognised image extension; either alone is insufficient.
func Classify(url string) URLClass {
	if url == "" {
		return ClassUnusable
	}
	lower := strings.ToLower(url)

	hasExtension := false
	for _, ext := range rasterExtensions {
		if strings.Contains(lower, ext) {
			hasExtension = true
			break
		}
	}
	if !hasExtension {
		return ClassUnusable
	}

	for _, marker := range directAssetMarkers {
		if strings.Contains(url, marker) {
			return ClassDirectAsset
		}
	}
	if strings.Contains(url, "ncbi.nlm.nih.gov") {
		return ClassGeneric
	}
	return ClassUnusable
}

// normalizeURL absolutizes a raw image reference against the PMC origin.
// Protocol-relative URLs gain https; root-relative paths gain the origin;
// anything without a scheme is treated as site-relative.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return pmcOrigin + raw
	case strings.HasPrefix(raw, "http"):
		return raw
	default:
		return pmcOrigin + "/" + raw
	}
}

// resolveImageURL returns the best available image URL for one figure, or
// "" when nothing usable was found. It first checks for an image embedded
// in the figure element itself; only when that yields no direct asset does
// it fetch the per-figure detail page and run the full candidate scan.
// Resolution never fails hard: every degraded path returns "".
func (s *Scraper) resolveImageURL(ctx context.Context, fig *goquery.Selection, pmcid, figID string) string {
	if src := inlineImageSrc(fig); src != "" {
		normalized := normalizeURL(src)
		if Classify(normalized) == ClassDirectAsset {
			return normalized
		}
	}
	return s.scrapeFigurePage(ctx, pmcid, figID)
}

// inlineImageSrc reads the first img reference inside the figure element,
// preferring src over the lazy-load data-src.
func inlineImageSrc(fig *goquery.Selection) string {
	img := fig.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := img.Attr("data-src"); ok && src != "" {
		return src
	}
	return ""
}

// scrapeFigurePage fetches the figure detail page and scans it for image
// candidates in selector-priority order. The first direct-asset hit wins
// immediately; the first generic NCBI image is remembered and returned
// only when the whole scan produces no direct asset.
func (s *Scraper) scrapeFigurePage(ctx context.Context, pmcid, figID string) string {
	pageURL := figurePageURL(pmcid, figID)

	if err := s.pacer.Wait(ctx); err != nil {
		return ""
	}

	doc, err := s.fetchDocument(ctx, pageURL, s.cfg.FigurePageTimeout)
	if err != nil {
		fmt.Fprintf(s.w, "  figure page fetch failed for %s/%s: %v\n", pmcid, figID, err)
		return ""
	}

	var generic string
	for _, selector := range figurePageImageSelectors {
		var direct string
		doc.Find(selector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, ok := img.Attr("src")
			if !ok || src == "" {
				return true
			}
			switch normalized := normalizeURL(src); Classify(normalized) {
			case ClassDirectAsset:
				direct = normalized
				return false
			case ClassGeneric:
				if generic == "" {
					generic = normalized
				}
			}
			return true
		})
		if direct != "" {
			return direct
		}
	}
	return generic
}
