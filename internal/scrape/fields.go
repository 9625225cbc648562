// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxLabelLength    = 200
	minCaptionLength  = 10
	minSiblingCaption = 20
)

// labelSelectors is the label fallback chain: explicit label classes,
// then bold text, then headings.
var labelSelectors = []string{
	".fig-label",
	".figure-title",
	".fig-title",
	"strong",
	".caption-title",
	"h3",
	"h4",
}

// captionSelectors is the caption fallback chain.
var captionSelectors = []string{
	".fig-caption",
	"figcaption",
	".caption",
	".figure-caption",
	".caption-text",
}

// extractLabel returns the figure's label text: the first selector match
// whose trimmed text is non-empty and shorter than 200 characters, or a
// synthesized "Figure <ordinal>".
func extractLabel(fig *goquery.Selection, ordinal int) string {
	for _, selector := range labelSelectors {
		text := strings.TrimSpace(fig.Find(selector).First().Text())
		if text != "" && len(text) < maxLabelLength {
			return text
		}
	}
	return fmt.Sprintf("Figure %d", ordinal)
}

// extractCaption returns the figure's caption: the first selector match
// whose collapsed text exceeds 10 characters, else the next sibling's
// collapsed text when it exceeds 20 characters, else "".
func extractCaption(fig *goquery.Selection) string {
	for _, selector := range captionSelectors {
		text := collapseWhitespace(fig.Find(selector).First().Text())
		if len(text) > minCaptionLength {
			return text
		}
	}

	// Some article layouts place the caption in the block that follows
	// the figure rather than inside it.
	sibling := collapseWhitespace(fig.Next().Text())
	if len(sibling) > minSiblingCaption {
		return sibling
	}
	return ""
}

// collapseWhitespace trims s and normalizes any run of space, tab, or
// newline to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
