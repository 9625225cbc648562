// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcq

import (
	"bytes"
	"text/template"
)

// systemPrompt frames the model's role for every request.
const systemPrompt = "You create high-quality, image-focused MCQs for medical education with USMLE alignment."

// mcqPromptTmpl is the per-figure prompt. The target answer letter is
// injected so correct answers distribute evenly across options instead of
// clustering on A.
var mcqPromptTmpl = template.Must(template.New("mcq").Parse(`You are a medical education expert creating USMLE-style MCQs. Using the abstract and figure caption below, write ONE imaging-centered MCQ.

**Paper Title:** {{.Title}}

**Abstract (context only):** {{.Abstract}}

**Figure Caption (primary source):** {{.Caption}}

**Requirements:**
1. The MCQ must be about what is visible in the image/figure. Begin with brief clinical background, then ask what the image shows.
2. Use details from the caption (modality, key visual features). Do NOT invent unsupported details.
3. Keep it clinically relevant (diagnosis, hallmark sign, staging, complication, next step based on visual finding).
4. Provide exactly 5 options (A-E) with ONE best answer.
5. **CRITICAL**: Make option {{.Answer}} the correct answer. Place the best/most accurate response in option {{.Answer}}.
6. Add medical hashtags for searchability (max 10, comma-separated, no # symbols).
7. Choose **subject** from USMLE categories:
   - Step 1: Anatomy, Physiology, Biochemistry, Pharmacology, Microbiology & Immunology, Pathology, Behavioral Science & Biostatistics, Genetics
   - Step 2: Internal Medicine, Surgery, Pediatrics, Obstetrics & Gynecology, Psychiatry, Neurology, Emergency Medicine, Family Medicine, Radiology, Oncology
8. Choose **difficulty_level**: easy (basic recognition), intermediate (management/differential), difficult (subspecialty nuances)
9. Provide **commentary** that summarizes the key finding and explains why the answer is correct.

**Return ONLY valid JSON:**
{
  "mcq_question": "Clinical background + what does the image show?",
  "option_a": "Option A",
  "option_b": "Option B",
  "option_c": "Option C",
  "option_d": "Option D",
  "option_e": "Option E",
  "answer": "{{.Answer}}",
  "commentary": "Summary of key finding and explanation of correct answer",
  "hashtags": "imaging modality, anatomy, pathology, findings",
  "subject": "Radiology",
  "difficulty_level": "intermediate"
}
`))

// renderPrompt executes the prompt template for one figure.
func renderPrompt(title, abstract, caption, answer string) (string, error) {
	var buf bytes.Buffer
	err := mcqPromptTmpl.Execute(&buf, struct {
		Title    string
		Abstract string
		Caption  string
		Answer   string
	}{Title: title, Abstract: abstract, Caption: caption, Answer: answer})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
