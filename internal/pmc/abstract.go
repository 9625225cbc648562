// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pmc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// abstractUnavailable is the placeholder used when no abstract could be
// extracted.
const abstractUnavailable = "Abstract not available"

// minAbstractLength filters out stub abstract elements (graphical
// abstract labels, empty sections).
const minAbstractLength = 50

// abstract runs efetch for one article and extracts its abstract text,
// returning abstractUnavailable when nothing qualifies.
func (c *Client) abstract(ctx context.Context, uid string) (string, error) {
	params := url.Values{
		"db":      {"pmc"},
		"id":      {uid},
		"retmode": {"xml"},
	}

	body, err := c.get(ctx, efetchURL, params)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return extractAbstract(body)
}

// extractAbstract scans the article XML for the first abstract-bearing
// element whose collapsed text is long enough to be a real abstract:
// <abstract>, <abstract-group>, or <sec sec-type="abstract">. Articles
// without one yield the placeholder.
func extractAbstract(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	// PMC article XML is not always well-formed UTF-8 labelled; accept
	// whatever charset the decoder can pass through.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return abstractUnavailable, nil
		}
		if err != nil {
			return "", fmt.Errorf("parsing article XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !isAbstractElement(start) {
			continue
		}

		text, err := innerText(dec, start.Name)
		if err != nil {
			return "", fmt.Errorf("parsing article XML: %w", err)
		}
		if text = collapseText(text); len(text) > minAbstractLength {
			return text, nil
		}
	}
}

func isAbstractElement(start xml.StartElement) bool {
	switch strings.ToLower(start.Name.Local) {
	case "abstract", "abstract-group":
		return true
	case "sec":
		for _, attr := range start.Attr {
			if attr.Name.Local == "sec-type" && attr.Value == "abstract" {
				return true
			}
		}
	}
	return false
}

// innerText concatenates all character data until the matching end
// element, descending through nested markup.
func innerText(dec *xml.Decoder, name xml.Name) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name == name {
				depth++
			}
		case xml.EndElement:
			if t.Name == name {
				depth--
			}
		case xml.CharData:
			b.Write(t)
			b.WriteByte(' ')
		}
	}
	return b.String(), nil
}

// collapseText trims s and normalizes whitespace runs to single spaces.
func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
