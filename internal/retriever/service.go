package retriever

import (
	"log/slog"
	"sync"
)

// Service wraps one Retriever behind the single operation the rest of
// the system is allowed to call. The composition root constructs it
// once and hands it to the request handlers; nothing else touches the
// corpus or index directly.
type Service struct {
	retriever *Retriever
	logger    *slog.Logger
}

// NewService wraps an already-constructed Retriever.
func NewService(r *Retriever, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{retriever: r, logger: logger}
}

// RetrieveContext returns the top passages for query using the default
// result bound. It never fails: an unexpected error during scoring is
// recovered, logged, and surfaces as an empty list, so retrieval cannot
// take the serving path down.
func (s *Service) RetrieveContext(query string) (results []Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("retrieval panicked", "panic", rec)
			results = nil
		}
	}()
	return s.retriever.Search(query, DefaultTopK)
}

// Search exposes the underlying ranked search with an explicit bound,
// with the same never-fails guarantee as RetrieveContext.
func (s *Service) Search(query string, k int) (results []Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("retrieval panicked", "panic", rec)
			results = nil
		}
	}()
	return s.retriever.Search(query, k)
}

// Len returns the number of indexed entries.
func (s *Service) Len() int { return s.retriever.Len() }

var (
	defaultMu      sync.Mutex
	defaultService *Service
)

// Default returns the process-wide Service, constructing it on the
// first call. The mutex guarantees at most one construction when
// concurrent callers race on first use; later calls ignore corpusPath
// and reuse the first instance.
func Default(corpusPath string) (*Service, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultService != nil {
		return defaultService, nil
	}
	r, err := New(corpusPath)
	if err != nil {
		return nil, err
	}
	defaultService = NewService(r, slog.Default())
	return defaultService, nil
}
