package ingest

import (
	"context"
	"log/slog"
)

// Count is the observed document total of one index.
type Count struct {
	Index     string
	Documents int64
	Err       error
}

// DefaultVerifyIndices are the indices populated by the bulk load.
func DefaultVerifyIndices() []string {
	return []string{"opsguard-incidents", "opsguard-metrics", "opsguard-business", "opsguard-history"}
}

// Verifier reports document counts after a load.
type Verifier struct {
	backend Backend
	indices []string
	logger  *slog.Logger
}

// NewVerifier checks the default indices unless others are given.
func NewVerifier(backend Backend, logger *slog.Logger, indices ...string) *Verifier {
	if len(indices) == 0 {
		indices = DefaultVerifyIndices()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{backend: backend, indices: indices, logger: logger}
}

// Run counts each index. Failures are recorded per index and never stop
// the remaining counts.
func (v *Verifier) Run(ctx context.Context) []Count {
	counts := make([]Count, 0, len(v.indices))
	for _, index := range v.indices {
		n, err := v.backend.Count(ctx, index)
		if err != nil {
			v.logger.Error("verification failed", slog.String("index", index), slog.Any("error", err))
		} else {
			v.logger.Info("index verified", slog.String("index", index), slog.Int64("documents", n))
		}
		counts = append(counts, Count{Index: index, Documents: n, Err: err})
	}
	return counts
}
