package search

import "strings"

// fullWidthSpace is the ideographic space used in Japanese input.
const fullWidthSpace = "　"

// Tokenize splits a raw query into keywords. Full-width spaces are treated
// as separators, empty tokens are dropped, order and duplicates are kept.
func Tokenize(raw string) []string {
	normalized := strings.ReplaceAll(raw, fullWidthSpace, " ")
	fields := strings.Split(normalized, " ")

	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
