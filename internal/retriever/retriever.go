package retriever

import (
	"math"
	"sort"
	"strings"
)

// DefaultTopK bounds the result count when callers do not ask for a
// specific k.
const DefaultTopK = 8

// Result is one retrieved passage: the answer text of a corpus entry,
// its cosine similarity to the query, and the provenance label.
type Result struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Retriever ranks corpus entries against free-text queries. The corpus
// and index are built once at construction and never mutated, so a
// Retriever is safe for concurrent use without locking.
type Retriever struct {
	corpus  *Corpus
	vec     *vectorizer
	vectors [][]float64
}

// New loads the corpus at path and builds the TF-IDF index over its
// question fields. A missing file yields a functional retriever with
// zero entries; a dataset without the required columns fails with a
// *SchemaError.
func New(path string) (*Retriever, error) {
	corpus, err := LoadCorpus(path)
	if err != nil {
		return nil, err
	}
	return fromCorpus(corpus), nil
}

func fromCorpus(corpus *Corpus) *Retriever {
	docs := make([]string, len(corpus.Entries))
	for i, e := range corpus.Entries {
		docs[i] = e.Question
	}

	vec := newVectorizer()
	if len(docs) == 0 {
		// Degraded mode: fit over a placeholder so the vocabulary is
		// non-empty and query vectorization keeps working.
		vec.fit([]string{placeholderQuestion})
	} else {
		vec.fit(docs)
	}

	vectors := make([][]float64, len(docs))
	for i, doc := range docs {
		vectors[i] = vec.vectorize(doc)
	}

	return &Retriever{corpus: corpus, vec: vec, vectors: vectors}
}

// Len returns the number of indexed entries.
func (r *Retriever) Len() int { return len(r.corpus.Entries) }

// SourceDefaulted reports whether entry sources were synthesized at
// load time because the dataset had no source column.
func (r *Retriever) SourceDefaulted() bool { return r.corpus.SourceDefaulted }

// Search returns up to k entries ranked by descending cosine similarity
// between the query and each entry's question. Zero-similarity entries
// are included and rank last, ties keeping corpus order. A blank query
// returns nothing; k <= 0 falls back to DefaultTopK.
func (r *Retriever) Search(query string, k int) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec := r.vec.vectorize(query)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(r.vectors))
	for i, vec := range r.vectors {
		scores[i] = scored{idx: i, score: cosineSimilarity(queryVec, vec)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]Result, k)
	for i := 0; i < k; i++ {
		entry := r.corpus.Entries[scores[i].idx]
		results[i] = Result{
			Text:   entry.Answer,
			Score:  scores[i].score,
			Source: entry.Source,
		}
	}
	return results
}

// cosineSimilarity is dot(a,b) / (|a|*|b|), defined as 0 when either
// vector is zero so a query with no vocabulary overlap scores 0 instead
// of dividing by zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
