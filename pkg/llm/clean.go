package llm

import (
	"regexp"
	"strings"
)

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFencePattern  = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")

	// Conversational prefixes models prepend despite instructions.
	sqlPrefixes = []string{
		"sql query:", "sql:", "query:", "answer:", "here is the sql:",
		"here's the sql:",
	}

	leadingVerbPattern = regexp.MustCompile(`(?i)^\s*(SELECT|WITH|SHOW|DESCRIBE|DESC|EXPLAIN)\b`)
)

// CleanSQL extracts the SQL statement from raw model output. Reasoning
// blocks and markdown fences are stripped, conversational prefixes removed,
// and when prose still surrounds the statement the first line starting with
// a read verb wins. Returns "" when no statement can be found.
func CleanSQL(raw string) string {
	text := thinkBlockPattern.ReplaceAllString(raw, "")

	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)

	lowered := strings.ToLower(text)
	for _, prefix := range sqlPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			lowered = strings.ToLower(text)
		}
	}

	if leadingVerbPattern.MatchString(text) {
		return text
	}

	// Prose around the statement: keep from the first read-verb line on,
	// dropping anything after a blank line that follows it.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !leadingVerbPattern.MatchString(line) {
			continue
		}
		kept := lines[i:]
		for j, l := range kept {
			if strings.TrimSpace(l) == "" {
				kept = kept[:j]
				break
			}
		}
		return strings.TrimSpace(strings.Join(kept, "\n"))
	}

	return ""
}
