package retriever

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// placeholderQuestion seeds the vocabulary when the corpus is empty so
// fitting never happens over zero documents and Search stays usable.
const placeholderQuestion = "placeholder question"

// vectorizer is a TF-IDF vectorizer over a frozen vocabulary. The
// vocabulary and IDF weights are fixed at fit time; terms outside the
// vocabulary contribute zero weight and never extend it.
type vectorizer struct {
	vocabulary   map[string]int
	idf          []float64
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func newVectorizer() *vectorizer {
	return &vectorizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    englishStopwords(),
	}
}

// fit builds the vocabulary and IDF weights from the documents. Terms
// are sorted before dimensions are assigned so a fixed corpus always
// produces the same vectors.
func (v *vectorizer) fit(docs []string) {
	df := make(map[string]int)
	for _, text := range docs {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF: rare terms weigh more, terms in every document
		// bottom out at 1.
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
}

// vectorize projects text into the frozen vocabulary and returns its
// L2-normalised TF-IDF weight vector. Text with no in-vocabulary terms
// yields the zero vector.
func (v *vectorizer) vectorize(text string) []float64 {
	vec := make([]float64, len(v.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range v.tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}

	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
	}

	norm := 0.0
	for _, w := range vec {
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// tokenize case-folds and extracts letter runs, dropping stop words.
func (v *vectorizer) tokenize(text string) []string {
	raw := v.tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func englishStopwords() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "an", "and", "any", "are",
		"as", "at", "be", "been", "being", "below", "between", "both", "but",
		"by", "can", "did", "do", "does", "down", "during", "else", "few",
		"for", "from", "further", "had", "has", "have", "he", "her", "here",
		"his", "how", "i", "if", "in", "into", "is", "it", "its", "just",
		"me", "more", "most", "my", "no", "not", "now", "of", "off", "on",
		"only", "or", "other", "our", "out", "over", "own", "same", "she",
		"should", "so", "some", "such", "than", "that", "the", "their",
		"them", "then", "there", "these", "they", "this", "those", "through",
		"to", "too", "under", "until", "up", "very", "was", "we", "were",
		"what", "when", "where", "which", "while", "who", "why", "will",
		"with", "you", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
