package bot

import "strings"

var markdownEscaper = strings.NewReplacer(`_`, `\_`, `*`, `\*`, "`", "\\`", `[`, `\[`)

// escapeMarkdown escapes text for the legacy Markdown parse mode so
// user-supplied names and titles cannot open an entity.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
