package retriever

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultSource labels entries when the dataset carries no source column.
const DefaultSource = "csv:agriculture-qna"

// Entry is one question/answer record of the knowledge base. The
// question is what gets indexed; the answer is what callers receive.
type Entry struct {
	Question string
	Answer   string
	Source   string
}

// Corpus is the fixed set of entries loaded from the dataset, in file
// order. It is never mutated after load; corpus growth happens by
// editing the file and restarting the process.
type Corpus struct {
	Entries []Entry

	// SourceDefaulted records, once at load time, that the dataset had
	// no source column and every entry carries DefaultSource.
	SourceDefaulted bool
}

// SchemaError reports a dataset missing a required column. A malformed
// schema cannot be partially used, so it aborts retriever construction.
type SchemaError struct {
	Path    string
	Missing string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("corpus %s: missing required column %q", e.Path, e.Missing)
}

// LoadCorpus reads the QA dataset at path. A missing file is not an
// error: the service must stay up without a knowledge base, so an
// empty corpus is returned instead.
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Corpus{}, nil
		}
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &SchemaError{Path: path, Missing: "question"}
		}
		return nil, fmt.Errorf("reading corpus header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	qCol, ok := cols["question"]
	if !ok {
		return nil, &SchemaError{Path: path, Missing: "question"}
	}
	aCol, ok := cols["answer"]
	if !ok {
		return nil, &SchemaError{Path: path, Missing: "answer"}
	}
	sCol, hasSource := cols["source"]

	corpus := &Corpus{SourceDefaulted: !hasSource}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading corpus row %d: %w", line, err)
		}

		var entry Entry
		if qCol < len(record) {
			entry.Question = record[qCol]
		}
		if aCol < len(record) {
			entry.Answer = record[aCol]
		}
		if entry.Question == "" || entry.Answer == "" {
			return nil, fmt.Errorf("corpus %s: row %d has an empty question or answer", path, line)
		}
		if hasSource && sCol < len(record) {
			entry.Source = record[sCol]
		} else {
			entry.Source = DefaultSource
		}
		corpus.Entries = append(corpus.Entries, entry)
	}

	return corpus, nil
}
