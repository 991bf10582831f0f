package phrase

// stopwords is the fixed set excluded from unigram counts and used to
// discard n-gram candidates made up entirely of filler.
var stopwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"her", "was", "one", "our", "out", "day", "get", "has", "him", "his",
		"how", "man", "new", "now", "old", "see", "two", "way", "who", "its",
		"did", "yes", "she", "may", "say", "each", "which", "their", "will",
		"about", "would", "there", "could", "other", "after", "first", "never",
		"these", "think", "where", "being", "every", "great", "might", "shall",
		"still", "those", "under", "while", "should", "because", "through",
		"between", "another", "against", "nothing", "without", "before",
		"around", "however", "into", "over", "than", "then", "them", "they",
		"this", "that", "with", "have", "from", "were", "been", "some", "what",
		"when", "your", "said", "also", "more", "most", "such", "only", "very",
		"just", "like", "many", "much", "both", "does", "here", "even", "well",
		"made", "upon", "same", "during", "within", "among",
	} {
		stopwords[w] = true
	}
}

// isStopword reports whether the lowercased token is in the fixed set.
func isStopword(token string) bool {
	return stopwords[token]
}
