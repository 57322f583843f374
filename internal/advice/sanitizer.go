// Package advice turns free-text language model answers into
// entity.StructuredAdvice. Every input yields a well-typed record.
package advice

import (
	"regexp"
	"strings"
)

const fence = "```"

var (
	leadingFenceRe  = regexp.MustCompile("^```[A-Za-z0-9_+-]*\\s*")
	trailingFenceRe = regexp.MustCompile("\\s*```$")
	languageTagRe   = regexp.MustCompile(`^[A-Za-z0-9_+-]+\r?\n`)
)

// LocatePayload trims raw, drops a surrounding code fence and returns the
// span from the first '{' to the last '}' inclusive. The span is only a
// candidate; it may still fail to decode.
func LocatePayload(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", false
	}

	cleaned = leadingFenceRe.ReplaceAllString(cleaned, "")
	cleaned = trailingFenceRe.ReplaceAllString(cleaned, "")

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", false
	}

	end := strings.LastIndex(cleaned, "}")
	if end <= start {
		return "", false
	}

	return cleaned[start : end+1], true
}

// unwrapFence keeps the body of the first fenced block when the text holds a
// complete one, and drops a leading language tag.
func unwrapFence(text string) string {
	if !strings.Contains(text, fence) {
		return text
	}

	parts := strings.Split(text, fence)
	if len(parts) >= 3 {
		text = strings.TrimSpace(parts[1])
	}

	return strings.TrimSpace(languageTagRe.ReplaceAllString(text, ""))
}
