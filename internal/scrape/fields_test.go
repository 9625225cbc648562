// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// parseFragment parses an HTML fragment and returns the selection for sel.
func parseFragment(t *testing.T, html, sel string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fragment: %v", err)
	}
	s := doc.Find(sel).First()
	if s.Length() == 0 {
		t.Fatalf("selector %q matched nothing in fragment", sel)
	}
	return s
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "Panel A", "Panel A"},
		{"leading and trailing", "   Panel A shows   focal  necrosis.   ", "Panel A shows focal necrosis."},
		{"tabs and newlines", "a\tb\nc\r\nd", "a b c d"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseWhitespace(tt.in); got != tt.want {
				t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		ordinal int
		want    string
	}{
		{
			name:    "fig-label class wins",
			html:    `<div class="fig" id="F1"><span class="fig-label">Figure 1.</span><strong>Bold text</strong></div>`,
			ordinal: 1,
			want:    "Figure 1.",
		},
		{
			name:    "falls through to strong",
			html:    `<div class="fig" id="F1"><strong>Fig. 1</strong></div>`,
			ordinal: 1,
			want:    "Fig. 1",
		},
		{
			name:    "heading level three",
			html:    `<div class="fig" id="F1"><h3>Figure 1: CT scan</h3></div>`,
			ordinal: 1,
			want:    "Figure 1: CT scan",
		},
		{
			name:    "overlong label rejected, synthesized fallback",
			html:    `<div class="fig" id="F1"><strong>` + strings.Repeat("x", 250) + `</strong></div>`,
			ordinal: 2,
			want:    "Figure 2",
		},
		{
			name:    "no selector matches",
			html:    `<div class="fig" id="F1"><p>just a paragraph</p></div>`,
			ordinal: 3,
			want:    "Figure 3",
		},
		{
			name:    "whitespace-only label skipped",
			html:    `<div class="fig" id="F1"><span class="fig-label">   </span><h4>MRI image</h4></div>`,
			ordinal: 1,
			want:    "MRI image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig := parseFragment(t, tt.html, "div.fig")
			if got := extractLabel(fig, tt.ordinal); got != tt.want {
				t.Errorf("extractLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractCaption(t *testing.T) {
	tests := []struct {
		name string
		html string
		sel  string
		want string
	}{
		{
			name: "fig-caption class",
			html: `<div class="fig" id="F1"><div class="fig-caption">   Panel A shows   focal  necrosis.   </div></div>`,
			sel:  "div.fig",
			want: "Panel A shows focal necrosis.",
		},
		{
			name: "figcaption element",
			html: `<figure id="F1"><img src="/x.jpg"><figcaption>Axial CT demonstrating a mass.</figcaption></figure>`,
			sel:  "figure",
			want: "Axial CT demonstrating a mass.",
		},
		{
			name: "short caption rejected",
			html: `<div class="fig" id="F1"><div class="caption">Short.</div></div>`,
			sel:  "div.fig",
			want: "",
		},
		{
			name: "short caption rejected but later selector qualifies",
			html: `<div class="fig" id="F1"><div class="fig-caption">tiny</div><div class="caption-text">A sufficiently long caption text.</div></div>`,
			sel:  "div.fig",
			want: "A sufficiently long caption text.",
		},
		{
			name: "sibling fallback",
			html: `<div><div class="fig" id="F1"><img src="/x.jpg"></div><p>Histology  of the resected   specimen showing tumor cells.</p></div>`,
			sel:  "div.fig",
			want: "Histology of the resected specimen showing tumor cells.",
		},
		{
			name: "short sibling rejected",
			html: `<div><div class="fig" id="F1"><img src="/x.jpg"></div><p>Too short sibling</p></div>`,
			sel:  "div.fig",
			want: "",
		},
		{
			name: "no caption anywhere",
			html: `<div class="fig" id="F1"><img src="/x.jpg"></div>`,
			sel:  "div.fig",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig := parseFragment(t, tt.html, tt.sel)
			if got := extractCaption(fig); got != tt.want {
				t.Errorf("extractCaption() = %q, want %q", got, tt.want)
			}
		})
	}
}
