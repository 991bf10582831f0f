// Package phrase computes word and multi-word frequency statistics for
// extracted article text. Everything here is deterministic: the same text
// always yields the same frequency map and the same ranked phrase list.
package phrase

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// minTokenLen is the minimum length for a token to survive tokenization.
	minTokenLen = 3
	// minUnigramLen is the minimum length for a single word to be counted.
	minUnigramLen = 4
	// minPhraseLen is the minimum character length of an n-gram candidate.
	minPhraseLen = 7
	// maxWindow is the widest n-gram window.
	maxWindow = 7
	// tieWindow is how close two counts must be, as a fraction of the larger,
	// to prefer the longer phrase during ranking.
	tieWindow = 0.15
)

// Ranked is one phrase with its raw count and percentage relative to the
// most frequent candidate in the same document.
type Ranked struct {
	Text    string  `json:"text"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Frequencies tokenizes text and counts single words and n-gram phrases.
// Single words shorter than four characters and stopwords are excluded;
// n-grams span windows of two through seven tokens and are discarded when
// too short or made entirely of stopwords. Empty text yields an empty map.
func Frequencies(text string) map[string]int {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return map[string]int{}
	}

	counts := make(map[string]int)

	for _, tok := range tokens {
		if len(tok) < minUnigramLen || isStopword(tok) {
			continue
		}
		counts[tok]++
	}

	for window := 2; window <= maxWindow; window++ {
		for i := 0; i+window <= len(tokens); i++ {
			gram := tokens[i : i+window]
			if allStopwords(gram) {
				continue
			}
			candidate := strings.Join(gram, " ")
			if len(candidate) < minPhraseLen {
				continue
			}
			counts[candidate]++
		}
	}

	return counts
}

// Cap trims a frequency map to at most limit entries, keeping the highest
// counts. Selection is deterministic: count descending, then text ascending.
func Cap(counts map[string]int, limit int) map[string]int {
	if limit <= 0 || len(counts) <= limit {
		if limit <= 0 {
			return map[string]int{}
		}
		return counts
	}

	type entry struct {
		text  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for text, count := range counts {
		entries = append(entries, entry{text, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].text < entries[j].text
	})

	capped := make(map[string]int, limit)
	for _, e := range entries[:limit] {
		capped[e.text] = e.count
	}
	return capped
}

// Top ranks the frequency map into the most salient phrases. Candidates are
// ordered by count, with near-ties (within the tie window) resolved toward
// the longer phrase, then filtered so no surviving phrase is a substring of
// another. Counts below 2 never rank. A limit of zero yields an empty slice.
func Top(counts map[string]int, limit int) []Ranked {
	if limit <= 0 || len(counts) == 0 {
		return []Ranked{}
	}

	candidates := make([]Ranked, 0, len(counts))
	topCount := 0
	for text, count := range counts {
		if count < 2 {
			continue
		}
		candidates = append(candidates, Ranked{Text: text, Count: count})
		if count > topCount {
			topCount = count
		}
	}
	if len(candidates) == 0 {
		return []Ranked{}
	}

	// Deterministic base order first, then the tie-window preference for
	// longer phrases as a stable refinement.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		if len(candidates[i].Text) != len(candidates[j].Text) {
			return len(candidates[i].Text) > len(candidates[j].Text)
		}
		return candidates[i].Text < candidates[j].Text
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if withinTie(a.Count, b.Count) {
			return len(a.Text) > len(b.Text)
		}
		return a.Count > b.Count
	})

	ranked := make([]Ranked, 0, limit)
	for _, cand := range candidates {
		if containsOverlap(ranked, cand.Text) {
			continue
		}
		cand.Percent = round1(float64(cand.Count) / float64(topCount) * 100)
		ranked = append(ranked, cand)
		if len(ranked) == limit {
			break
		}
	}

	return ranked
}

// withinTie reports whether two counts are close enough to count as a tie.
func withinTie(a, b int) bool {
	hi := a
	if b > hi {
		hi = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= tieWindow*float64(hi)
}

// containsOverlap reports whether the candidate duplicates an accepted
// phrase in either direction: it is a substring of one, or contains one.
// "wall" and "the berlin wall" never both surface.
func containsOverlap(accepted []Ranked, candidate string) bool {
	for _, a := range accepted {
		if strings.Contains(a.Text, candidate) || strings.Contains(candidate, a.Text) {
			return true
		}
	}
	return false
}

func allStopwords(gram []string) bool {
	for _, tok := range gram {
		if !isStopword(tok) {
			return false
		}
	}
	return true
}

// tokenize lowercases the text, strips everything that is not a letter,
// digit, or internal apostrophe, and drops tokens shorter than three
// characters.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len(f) < minTokenLen {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
