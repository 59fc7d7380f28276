package artifact

import "strings"

const fence = "```"

// CleanCode removes the markdown fence a model wraps around source code:
// a leading "```lang" line and a trailing "```" line. Clean input is returned
// unchanged apart from surrounding blank space.
func CleanCode(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, fence) {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}
	trimmed := strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(trimmed, fence) {
		text = strings.TrimSuffix(trimmed, fence)
	}
	return strings.TrimSpace(text) + "\n"
}
