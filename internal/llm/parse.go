package llm

import "strings"

// StripFences extracts the payload from a markdown-fenced model response.
// Models asked for "JSON only" still wrap output in ```json fences often
// enough that every structured-output caller needs this.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}

	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}

	return text
}
