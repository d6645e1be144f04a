package metadata

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// foldTitle lowercases, transliterates accents and drops punctuation so that
// "Amélie" and "amelie" compare equal.
func foldTitle(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// titleSimilarity computes a confidence score between a search query and a result title.
// Exact match = 1.0, prefix match 0.9, otherwise word overlap.
func titleSimilarity(query, result string) float64 {
	q := foldTitle(query)
	r := foldTitle(result)

	if q == "" || r == "" {
		return 0.0
	}
	if q == r {
		return 1.0
	}
	if strings.HasPrefix(r, q+" ") || strings.HasPrefix(q, r+" ") {
		return 0.9
	}

	qWords := strings.Fields(q)
	rWords := strings.Fields(r)
	rSet := make(map[string]bool, len(rWords))
	for _, w := range rWords {
		rSet[w] = true
	}

	matches := 0
	for _, w := range qWords {
		if rSet[w] {
			matches++
		}
	}

	total := len(qWords)
	if len(rWords) > total {
		total = len(rWords)
	}
	score := float64(matches) / float64(total)

	// Penalize if result has many extra words (e.g. query="Cloverfield" vs result="10 Cloverfield Lane")
	if len(rWords) > len(qWords) {
		score *= float64(len(qWords)) / float64(len(rWords))
	}
	return score
}

// rankByTitle orders results by how well their title matches the query.
// Ties keep TMDB's popularity order.
func rankByTitle(query string, movies []Movie) {
	scores := make(map[int]float64, len(movies))
	for _, m := range movies {
		score := titleSimilarity(query, m.Title)
		if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
			if orig := titleSimilarity(query, m.OriginalTitle); orig > score {
				score = orig
			}
		}
		scores[m.ID] = score
	}
	sort.SliceStable(movies, func(i, j int) bool {
		return scores[movies[i].ID] > scores[movies[j].ID]
	})
}
