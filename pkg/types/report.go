// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CaseReport holds metadata for one retrieved case-report article.
type CaseReport struct {
	// PMCID is the canonical PMC identifier including the "PMC" prefix.
	PMCID string `json:"pmcid" yaml:"pmcid"`

	// PMID is the PubMed identifier, when one could be extracted.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Journal is the full journal name, falling back to the short source name.
	Journal string `json:"journal" yaml:"journal"`

	// PubDate is the publication date string as reported by esummary.
	PubDate string `json:"pub_date" yaml:"pub_date"`

	// Year is extracted from PubDate; zero when unparseable.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract is the article abstract, or "Abstract not available".
	Abstract string `json:"abstract" yaml:"abstract"`

	// ArticleURL is the canonical PMC article page.
	ArticleURL string `json:"article_url" yaml:"article_url"`

	// PubMedURL is the PubMed page, empty when no PMID is known.
	PubMedURL string `json:"pubmed_url,omitempty" yaml:"pubmed_url,omitempty"`
}

// FigureRecord is one extracted figure from an article page.
type FigureRecord struct {
	// FigureID is the element id on the article page, or a synthesized
	// "figure_<n>" when the element carries none. Unique per article.
	FigureID string `json:"figure_id" yaml:"figure_id"`

	// Label is the human-readable figure label (e.g. "Figure 2.").
	Label string `json:"label" yaml:"label"`

	// Caption is the whitespace-collapsed caption text; may be empty.
	Caption string `json:"caption" yaml:"caption"`

	// ImageURL is the resolved direct image URL, or the figure page URL
	// when no direct asset could be found.
	ImageURL string `json:"image_url" yaml:"image_url"`

	// FigurePageURL is the per-figure detail page on PMC.
	FigurePageURL string `json:"figure_page_url" yaml:"figure_page_url"`
}

// MCQ is one generated multiple-choice question for a figure.
type MCQ struct {
	Question   string `json:"mcq_question"`
	OptionA    string `json:"option_a"`
	OptionB    string `json:"option_b"`
	OptionC    string `json:"option_c"`
	OptionD    string `json:"option_d"`
	OptionE    string `json:"option_e"`
	Answer     string `json:"answer"`
	Commentary string `json:"commentary"`
	Hashtags   string `json:"hashtags"`
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty_level"`
}

// IsEmpty reports whether the MCQ carries no usable question.
func (m MCQ) IsEmpty() bool {
	return m.Answer == "" || m.OptionA == ""
}

// Row is one flattened output row: article metadata joined with a single
// figure and its optional question.
type Row struct {
	Report       CaseReport
	Figure       FigureRecord
	FigureNumber int
	MCQ          MCQ
}
