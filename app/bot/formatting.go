package bot

import (
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// markdownToTelegram converts standard Markdown into the legacy Telegram
// flavor: headers become bold lines with a marker emoji, `**` bold becomes
// `*`, and list dashes become bullets.
func markdownToTelegram(text string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "# "):
			line = "📌 *" + strings.TrimSpace(line[2:]) + "*"
		case strings.HasPrefix(line, "## "):
			line = "🔹 *" + strings.TrimSpace(line[3:]) + "*"
		case strings.HasPrefix(line, "### "):
			line = "🔸 *" + strings.TrimSpace(line[4:]) + "*"
		case strings.HasPrefix(strings.TrimSpace(line), "- "):
			line = strings.Replace(line, "- ", "• ", 1)
		}

		line = boldPattern.ReplaceAllString(line, "*$1*")
		formatted = append(formatted, line)
	}

	return strings.Join(formatted, "\n")
}
