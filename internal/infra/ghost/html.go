package ghost

import (
	"html"
	"strings"

	"bloop/internal/utils/text"
)

// ContentToHTML renders plain generated text as HTML paragraphs.
// Blank lines separate paragraphs; single newlines become <br>.
func ContentToHTML(content string) string {
	var sb strings.Builder
	for _, para := range text.Paragraphs(content) {
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}
