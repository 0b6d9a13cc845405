package story

import "strings"

// SplitPages partitions generated prose into page segments on paragraph
// boundaries. Segments that are empty after trimming are discarded; order is
// preserved.
func SplitPages(text string) []string {
	raw := strings.Split(text, "\n\n")
	pages := make([]string, 0, len(raw))
	for _, seg := range raw {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}
	return pages
}
