package gazette

import "strings"

// Match reports, for every registry entry in order, whether the lowercased
// term occurs in text. text must already be lowercase (the extractor folds
// case exactly once); no further normalization happens here.
//
// Matching is pure substring containment: "Ana" matches inside "Banana".
// That is documented behavior, not a defect.
func Match(text string, registry TermRegistry) []MatchResult {
	results := make([]MatchResult, 0, registry.Len())
	for _, entry := range registry.Entries() {
		results = append(results, MatchResult{
			Term:  entry.Term,
			Found: strings.Contains(text, strings.ToLower(entry.Term)),
		})
	}
	return results
}
