package interview

import (
	"encoding/json"
	"strings"
)

// parseQuestionList applies the tiered parser to untrusted provider output:
// a JSON string array first, then any lines containing a question mark. An
// empty result means both tiers failed; the caller pads from the defaults.
func parseQuestionList(raw string) []string {
	cleaned := stripFences(raw)

	if questions := parseJSONArray(cleaned); len(questions) > 0 {
		return questions
	}

	return questionLines(cleaned)
}

// stripFences removes a surrounding markdown code fence, which chat models
// like to wrap structured output in.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

// parseJSONArray extracts the outermost bracketed region and decodes it as
// a string array, tolerating mixed element types.
func parseJSONArray(raw string) []string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	region := raw[start : end+1]

	var questions []string
	if err := json.Unmarshal([]byte(region), &questions); err == nil {
		return nonEmpty(questions)
	}

	var loose []any
	if err := json.Unmarshal([]byte(region), &loose); err != nil {
		return nil
	}

	questions = questions[:0]
	for _, item := range loose {
		if s, ok := item.(string); ok {
			questions = append(questions, s)
		}
	}
	return nonEmpty(questions)
}

// questionLines keeps any line containing a question mark, stripping list
// numbering, bullets and surrounding quotes.
func questionLines(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "?") {
			continue
		}

		line = strings.TrimLeft(line, "-*• \t")
		if i := leadingNumbering(line); i > 0 {
			line = strings.TrimSpace(line[i:])
		}
		line = strings.Trim(line, `"',`)
		line = strings.TrimSpace(line)

		if line != "" {
			questions = append(questions, line)
		}
	}
	return questions
}

// leadingNumbering returns the length of a "1." / "2)" style prefix, or 0.
func leadingNumbering(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return 0
	}
	if line[i] == '.' || line[i] == ')' {
		return i + 1
	}
	return 0
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
