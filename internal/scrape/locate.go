// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// figureSelectors lists the structural patterns that mark a figure block,
// most specific first. Later, looser selectors only contribute elements
// not already accepted by an earlier one.
var figureSelectors = []string{
	"div.fig",
	"figure",
	".fig-panel",
	".boxed-text figure",
	`[id^="F"]`,
}

// locateFigures returns the distinct figure-bearing elements of doc in
// first-acceptance order. Elements are de-duplicated by their id
// attribute, or by a key synthesized from the running accept count when
// the element carries none. A document with no figures returns nil.
func locateFigures(doc *goquery.Document) []*goquery.Selection {
	var figures []*goquery.Selection
	seen := make(map[string]bool)

	for _, selector := range figureSelectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			id, ok := el.Attr("id")
			if !ok || id == "" {
				id = fmt.Sprintf("fig_%d", len(figures))
			}
			if seen[id] {
				return
			}
			seen[id] = true
			figures = append(figures, el)
		})
	}
	return figures
}
