package retriever

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizerFitExcludesStopwords(t *testing.T) {
	v := newVectorizer()
	v.fit([]string{"What causes yellow leaves?", "How to plant cassava?"})

	assert.Contains(t, v.vocabulary, "yellow")
	assert.Contains(t, v.vocabulary, "cassava")
	assert.NotContains(t, v.vocabulary, "what")
	assert.NotContains(t, v.vocabulary, "to")
}

func TestVectorizerDeterministic(t *testing.T) {
	docs := []string{"maize needs nitrogen", "cassava needs cuttings", "tomatoes need staking"}

	a := newVectorizer()
	a.fit(docs)
	b := newVectorizer()
	b.fit(docs)

	require.Equal(t, a.vocabulary, b.vocabulary)
	require.Equal(t, a.idf, b.idf)
	assert.Equal(t, a.vectorize("maize nitrogen"), b.vectorize("maize nitrogen"))
}

func TestVectorizeUnknownTermsAreZero(t *testing.T) {
	v := newVectorizer()
	v.fit([]string{"maize needs nitrogen"})

	vec := v.vectorize("zzxq gibberish")
	for _, w := range vec {
		assert.Zero(t, w)
	}
}

func TestVectorizeIsL2Normalised(t *testing.T) {
	v := newVectorizer()
	v.fit([]string{"maize needs nitrogen", "cassava grows from cuttings"})

	vec := v.vectorize("maize nitrogen cuttings")
	norm := 0.0
	for _, w := range vec {
		norm += w * w
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestIDFWeighsRareTermsHigher(t *testing.T) {
	v := newVectorizer()
	v.fit([]string{
		"maize needs nitrogen",
		"maize likes sunshine",
		"maize wants water",
	})

	// "maize" appears in every document, "nitrogen" in one.
	common := v.idf[v.vocabulary["maize"]]
	rare := v.idf[v.vocabulary["nitrogen"]]
	assert.Greater(t, rare, common)
}
