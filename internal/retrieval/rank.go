package retrieval

import "sort"

// DedupeAndTruncate sorts snippets by descending score, drops exact-text
// duplicates keeping the first seen after the sort (the higher-scored
// occurrence), and truncates to k. k <= 0 means no truncation.
func DedupeAndTruncate(snippets []Snippet, k int) []Snippet {
	sorted := make([]Snippet, len(snippets))
	copy(sorted, snippets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	seen := make(map[string]bool, len(sorted))
	unique := make([]Snippet, 0, len(sorted))
	for _, s := range sorted {
		if seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		unique = append(unique, s)
	}

	if k > 0 && len(unique) > k {
		unique = unique[:k]
	}
	return unique
}
