package loaders

import (
	"regexp"
	"strings"
)

var htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// rmHTMLComments strips HTML comments, including multi-line ones. Issue
// bodies tend to carry templated comments that are noise for retrieval.
func rmHTMLComments(text string) string {
	return htmlCommentPattern.ReplaceAllString(text, "")
}

// rmTextAfter truncates text after the first occurrence of marker,
// keeping the marker itself. Returns text unchanged when the marker is
// absent or empty.
func rmTextAfter(text, marker string) string {
	if marker == "" {
		return text
	}
	if idx := strings.Index(text, marker); idx != -1 {
		return text[:idx+len(marker)]
	}
	return text
}
