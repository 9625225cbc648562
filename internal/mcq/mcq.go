// Package mcq turns a figure caption and its article context into a
// USMLE-style multiple-choice question via a generative AI backend.
package mcq

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

const (
	defaultModel            = "gpt-4o-mini"
	defaultMinCaptionLength = 40
)

// AIBackend abstracts the chat-completion API so tests can supply a mock.
// Implementations take a system and user message and return the raw
// model output text. Per Strategy pattern.
type AIBackend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// answers is the set of option letters a question can key on.
var answers = []string{"A", "B", "C", "D", "E"}

// pickAnswer selects the option letter the correct response is placed in.
// Package-level var so tests can pin the choice.
var pickAnswer = func() string {
	return answers[rand.IntN(len(answers))]
}

// Generator produces questions for figure records. A nil Generator or one
// without a backend degrades to skipped questions rather than erroring.
type Generator struct {
	backend AIBackend
	cfg     types.MCQConfig
}

// New builds a Generator around the given backend. Zero config fields get
// defaults.
func New(backend AIBackend, cfg types.MCQConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MinCaptionLength <= 0 {
		cfg.MinCaptionLength = defaultMinCaptionLength
	}
	return &Generator{backend: backend, cfg: cfg}
}

// Generate creates one question for the figure. Failures never abort the
// caller's loop: a short caption, a backend error, or unparseable output
// all yield a question whose text records the reason and whose IsEmpty()
// is true.
func (g *Generator) Generate(ctx context.Context, report types.CaseReport, fig types.FigureRecord) types.MCQ {
	if g == nil || g.backend == nil || !g.cfg.Enabled {
		return skipped("MCQ generation skipped")
	}
	if len(strings.TrimSpace(fig.Caption)) < g.cfg.MinCaptionLength {
		return skipped("MCQ generation skipped")
	}

	target := pickAnswer()
	prompt, err := renderPrompt(report.Title, report.Abstract, fig.Caption, target)
	if err != nil {
		return skipped(fmt.Sprintf("Error: %v", err))
	}

	text, err := g.backend.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return skipped(fmt.Sprintf("Error: %v", err))
	}

	var m types.MCQ
	if err := json.Unmarshal([]byte(extractJSON(text)), &m); err != nil {
		return skipped("JSON parsing failed")
	}

	return validate(m, fig.Caption)
}

// extractJSON returns the substring between the first '{' and the last '}'.
// Models often wrap JSON in prose or code fences; the object itself is what
// we want. Falls back to the whole text when no braces are found.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// validate normalizes the model output and fills gaps from the caption.
func validate(m types.MCQ, caption string) types.MCQ {
	answer := strings.ToUpper(strings.TrimSpace(m.Answer))
	valid := false
	for _, a := range answers {
		if answer == a {
			valid = true
			break
		}
	}
	if !valid {
		answer = "A"
	}
	m.Answer = answer

	return enhanceFromCaption(m, caption)
}

// skipped returns a placeholder question carrying the skip reason.
func skipped(reason string) types.MCQ {
	return types.MCQ{Question: reason}
}
