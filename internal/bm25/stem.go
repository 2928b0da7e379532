package bm25

import "github.com/surgebase/porter2"

// stemMinLength mirrors the teacher's internal/semantic/stemmer.go default:
// words shorter than this are likely already a content-bearing root
// ("go", "id") and porter2 tends to mangle them.
const stemMinLength = 3

// stem returns word's Porter2 stem, or word unchanged if it's too short to
// bother stemming.
func stem(word string) string {
	if len(word) < stemMinLength {
		return word
	}
	return porter2.Stem(word)
}

// stemmedExtras returns the distinct stems of tokens that differ from their
// original form. Stemmed postings are additive (spec §4.6): a query for
// "authenticate" should also match documents only containing
// "authentication", without the raw "authentication" posting ever being
// replaced by its stem.
func stemmedExtras(tokens []string) []string {
	var extras []string
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		s := stem(tok)
		if s == tok || seen[s] {
			continue
		}
		seen[s] = true
		extras = append(extras, s)
	}
	return extras
}
