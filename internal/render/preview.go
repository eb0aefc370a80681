package render

import (
	"strings"
)

// Preview returns the first maxLines lines of content with markdown markers
// stripped, appending "..." on a new line if truncated. Content with
// maxLines or fewer lines comes back whole.
func Preview(content string, maxLines int) string {
	plain := StripMarkup(content)
	if plain == "" || maxLines <= 0 {
		return plain
	}

	pos := 0
	found := 0
	for i := 0; i < len(plain); i++ {
		if plain[i] == '\n' {
			found++
			if found == maxLines {
				pos = i
				break
			}
		}
	}
	if found < maxLines {
		return plain
	}
	return plain[:pos] + "\n..."
}

// StripMarkup removes the inline markers note text supports so list rows
// show plain words. It is line oriented and deliberately simple; anything
// it does not recognize passes through untouched.
func StripMarkup(content string) string {
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "#") {
			trimmed = strings.TrimLeft(trimmed, "#")
			trimmed = strings.TrimPrefix(trimmed, " ")
		}
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "__", "")
		trimmed = strings.ReplaceAll(trimmed, "*", "")
		trimmed = strings.ReplaceAll(trimmed, "`", "")
		lines[i] = trimmed
	}
	return strings.Join(lines, "\n")
}

// CountLines returns the number of lines in content. An empty string has
// zero lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
