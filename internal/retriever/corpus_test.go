package retriever

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCorpus writes a CSV dataset into a temp dir and returns its path.
func writeCorpus(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qna.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadCorpusWithSourceColumn(t *testing.T) {
	path := writeCorpus(t, "question,answer,source\n"+
		"What causes yellow leaves?,Nitrogen deficiency.,MoFA\n"+
		"How to plant cassava?,Use stem cuttings.,MoFA\n")

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, corpus.Entries, 2)
	assert.False(t, corpus.SourceDefaulted)

	assert.Equal(t, "What causes yellow leaves?", corpus.Entries[0].Question)
	assert.Equal(t, "Nitrogen deficiency.", corpus.Entries[0].Answer)
	assert.Equal(t, "MoFA", corpus.Entries[0].Source)
}

func TestLoadCorpusDefaultsMissingSourceColumn(t *testing.T) {
	path := writeCorpus(t, "question,answer\n"+
		"What causes yellow leaves?,Nitrogen deficiency.\n")

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, corpus.Entries, 1)
	assert.True(t, corpus.SourceDefaulted)
	assert.Equal(t, DefaultSource, corpus.Entries[0].Source)
}

func TestLoadCorpusMissingFile(t *testing.T) {
	corpus, err := LoadCorpus(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, corpus.Entries)
}

func TestLoadCorpusBadSchema(t *testing.T) {
	path := writeCorpus(t, "q,a\nwhat,because\n")

	_, err := LoadCorpus(path)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "question", schemaErr.Missing)
}

func TestLoadCorpusMissingAnswerColumnOnly(t *testing.T) {
	path := writeCorpus(t, "question,reply\nwhat,because\n")

	_, err := LoadCorpus(path)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "answer", schemaErr.Missing)
}

func TestLoadCorpusRejectsEmptyFields(t *testing.T) {
	path := writeCorpus(t, "question,answer\nWhat causes yellow leaves?,\n")

	_, err := LoadCorpus(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadCorpusQuotedFreeText(t *testing.T) {
	path := writeCorpus(t, "question,answer,source\n"+
		"How to store maize?,\"Dry it well, then bag it.\nKeep the store ventilated.\",MoFA\n")

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, corpus.Entries, 1)
	assert.Equal(t, "Dry it well, then bag it.\nKeep the store ventilated.", corpus.Entries[0].Answer)
}
