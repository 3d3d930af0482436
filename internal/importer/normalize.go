package importer

import "regexp"

// The two source-side image syntaxes. Neither pattern matches the target
// syntax the rewrite produces, which makes NormalizeRichText idempotent.
var (
	htmlImagePattern     = regexp.MustCompile(`<img[^>]+src="([^"]+)"[^>]*>`)
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// NormalizeRichText rewrites embedded image references from the source
// system's syntaxes into the target system's "!url!" embed syntax. Alt text
// is discarded; no other markdown is altered.
func NormalizeRichText(text string) string {
	if text == "" {
		return text
	}
	text = htmlImagePattern.ReplaceAllString(text, "!${1}!")
	text = markdownImagePattern.ReplaceAllString(text, "!${2}!")
	return text
}
