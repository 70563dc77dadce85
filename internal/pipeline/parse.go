package pipeline

import (
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)^```[a-z]*")
	fenceClose = regexp.MustCompile("```$")
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls a JSON object out of an LLM response: code fences are
// stripped and the outermost {...} region is returned. Returns the
// trimmed input unchanged when no object is found.
func ExtractJSON(raw string) string {
	stripped := strings.TrimSpace(raw)
	if strings.HasPrefix(stripped, "```") {
		stripped = strings.TrimSpace(fenceOpen.ReplaceAllString(stripped, ""))
		stripped = strings.TrimSpace(fenceClose.ReplaceAllString(stripped, ""))
	}

	if match := jsonObject.FindString(stripped); match != "" {
		return strings.TrimSpace(match)
	}
	return stripped
}

// ExtractCode pulls the body of the first code fence out of an LLM
// response, or the trimmed response when no fence is present.
func ExtractCode(raw string) string {
	stripped := strings.TrimSpace(raw)
	start := strings.Index(stripped, "```")
	if start == -1 {
		return stripped
	}

	body := stripped[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], " \t{};") {
		// Drop the language tag on the opening fence line.
		body = body[nl+1:]
	}

	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// allowedRanges is the character whitelist applied to generated text:
// whitespace, printable ASCII, and the Hangul blocks. Model output
// occasionally carries stray control characters and mojibake that break
// downstream JSON consumers.
var allowedRanges = [][2]rune{
	{0x0009, 0x000A},
	{0x000D, 0x000D},
	{0x0020, 0x007E},
	{0x1100, 0x11FF},
	{0x3130, 0x318F},
	{0xA960, 0xA97F},
	{0xAC00, 0xD7A3},
	{0xD7B0, 0xD7FF},
}

func allowedChar(r rune) bool {
	for _, rng := range allowedRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// SanitizeText filters a string down to the allowed character set.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowedChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
