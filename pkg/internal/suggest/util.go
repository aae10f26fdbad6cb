// Package suggest ranks candidates by their similarity to a mistyped input.
package suggest

import (
	"sort"

	"github.com/agext/levenshtein"
)

// Threshold is the minimum Score of a suggestion.
const Threshold = 0.5

type suggestion struct {
	text  string
	score float64
}

// Similar returns the candidates similar to given, most similar first.
func Similar(given string, candidates []string) []string {
	var result []suggestion
	for _, text := range candidates {
		if text == given {
			continue
		}
		score := Score(given, text)
		if score < Threshold {
			continue
		}
		result = append(result, suggestion{
			text:  text,
			score: score,
		})
	}
	sortSuggestions(result)
	out := make([]string, len(result))
	for i, s := range result {
		out[i] = s.text
	}
	return out
}

func sortSuggestions(s []suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].score > s[j].score
	})
}

// Score is the similarity of given to suggestion between 0 and 1.
func Score(given, suggestion string) float64 {
	return levenshtein.Similarity(given, suggestion, nil)
}
