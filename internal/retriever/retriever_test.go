package retriever

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoEntryCorpus = "question,answer,source\n" +
	"What causes yellow leaves?,Nitrogen deficiency.,MoFA\n" +
	"How to plant cassava?,Use stem cuttings.,MoFA\n"

func newTestRetriever(t *testing.T, data string) *Retriever {
	t.Helper()
	r, err := New(writeCorpus(t, data))
	require.NoError(t, err)
	return r
}

func TestSearchMatchesRelevantEntry(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	results := r.Search("yellow leaves nitrogen", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "Nitrogen deficiency.", results[0].Text)
	assert.Equal(t, "MoFA", results[0].Source)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchReturnsAnswerNotQuestion(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	results := r.Search("how to plant cassava", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "Use stem cuttings.", results[0].Text)
	assert.NotEqual(t, "How to plant cassava?", results[0].Text)
}

func TestSearchNoVocabularyOverlap(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	// Zero-similarity entries are kept, ranked last, never dropped.
	results := r.Search("unrelated gibberish zzxq", 2)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Zero(t, res.Score)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	assert.Empty(t, r.Search("", 8))
	assert.Empty(t, r.Search("   ", 8))
}

func TestSearchMissingCorpusFile(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)

	assert.Zero(t, r.Len())
	assert.Empty(t, r.Search("cassava", 8))
}

func TestSearchBadSchemaFailsConstruction(t *testing.T) {
	_, err := New(writeCorpus(t, "q,a\nwhat,because\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestSearchDeterministic(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	first := r.Search("yellow cassava leaves", 8)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Search("yellow cassava leaves", 8))
	}
}

func TestSearchScoresOrderedAndBounded(t *testing.T) {
	r := newTestRetriever(t, "question,answer\n"+
		"What causes yellow leaves in maize?,Nitrogen deficiency.\n"+
		"How do yellow leaves look?,Pale and streaky.\n"+
		"How to plant cassava?,Use stem cuttings.\n"+
		"When to harvest rice?,When grains harden.\n")

	results := r.Search("yellow leaves", 8)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, res.Score, results[i-1].Score)
		}
	}
}

func TestSearchRespectsK(t *testing.T) {
	r := newTestRetriever(t, twoEntryCorpus)

	assert.Len(t, r.Search("cassava leaves", 1), 1)
	// k larger than the corpus returns everything.
	assert.Len(t, r.Search("cassava leaves", 10), 2)
	// k <= 0 falls back to the default bound.
	assert.Len(t, r.Search("cassava leaves", 0), 2)
}

func TestSearchTiesKeepCorpusOrder(t *testing.T) {
	r := newTestRetriever(t, "question,answer\n"+
		"first entry about okra,Answer one.\n"+
		"second entry about okra,Answer two.\n")

	// Both questions match identically, so insertion order decides.
	results := r.Search("okra entry", 2)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-9)
	assert.Equal(t, "Answer one.", results[0].Text)
	assert.Equal(t, "Answer two.", results[1].Text)
}

func TestSourceDefaultedSurvivesIndexing(t *testing.T) {
	r := newTestRetriever(t, "question,answer\nHow to plant cassava?,Use stem cuttings.\n")

	assert.True(t, r.SourceDefaulted())
	results := r.Search("cassava", 1)
	require.Len(t, results, 1)
	assert.Equal(t, DefaultSource, results[0].Source)
}
