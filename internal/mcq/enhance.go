// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcq

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

// maxTags caps the number of regex-extracted hashtags.
const maxTags = 8

// subjectKeywords maps caption vocabulary to a USMLE subject, checked in
// order. The first group with a hit wins.
var subjectKeywords = []struct {
	subject string
	words   []string
}{
	{"Radiology", []string{"ct", "mri", "ultrasound", "radiograph", "imaging", "scan"}},
	{"Pathology", []string{"pathology", "biopsy", "histology", "tissue"}},
	{"Surgery", []string{"surgery", "surgical", "operative"}},
	{"Pediatrics", []string{"pediatric", "child", "infant"}},
}

// validDifficulties is the accepted difficulty_level vocabulary.
var validDifficulties = map[string]bool{
	"easy":         true,
	"intermediate": true,
	"difficult":    true,
}

// tagPatterns match common medical vocabulary in captions.
var tagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(ct|mri|ultrasound|radiograph|x-ray|mammography|pet|spect|fluoroscopy|angiography)\b`),
	regexp.MustCompile(`\b(brain|heart|lung|liver|kidney|breast|spine|abdomen|pelvis|thorax|head|neck)\b`),
	regexp.MustCompile(`\b(cancer|tumor|carcinoma|adenoma|metastasis|lesion|mass|nodule|cyst|inflammation)\b`),
	regexp.MustCompile(`\b(enhancement|calcification|stenosis|occlusion|hemorrhage|edema|ischemia|infarct)\b`),
	regexp.MustCompile(`\b(biopsy|surgery|resection|ablation|stent|catheter|injection|contrast)\b`),
	regexp.MustCompile(`\b(diabetes|hypertension|pneumonia|covid|stroke)\b`),
	regexp.MustCompile(`\b(myocardial\s+infarction|pulmonary\s+embolism)\b`),
}

// enhanceFromCaption fills subject, difficulty, and hashtags from caption
// content when the model left them blank or out of vocabulary.
func enhanceFromCaption(m types.MCQ, caption string) types.MCQ {
	lower := strings.ToLower(caption)

	if m.Subject == "" {
		m.Subject = "Internal Medicine"
		for _, sk := range subjectKeywords {
			if containsAny(lower, sk.words) {
				m.Subject = sk.subject
				break
			}
		}
	}

	if !validDifficulties[m.Difficulty] {
		switch {
		case containsAny(lower, []string{"rare", "unusual", "novel"}):
			m.Difficulty = "difficult"
		case containsAny(lower, []string{"management", "treatment", "intervention"}):
			m.Difficulty = "intermediate"
		default:
			m.Difficulty = "easy"
		}
	}

	if m.Hashtags == "" {
		m.Hashtags = extractMedicalTags(caption)
	}

	return m
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// extractMedicalTags pulls medical terms out of a caption, deduplicated,
// sorted, multi-word matches underscored.
func extractMedicalTags(caption string) string {
	lower := strings.ToLower(caption)

	found := map[string]bool{}
	for _, pat := range tagPatterns {
		for _, match := range pat.FindAllString(lower, -1) {
			found[strings.ReplaceAll(match, " ", "_")] = true
		}
	}

	tags := make([]string, 0, len(found))
	for tag := range found {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return strings.Join(tags, ", ")
}
