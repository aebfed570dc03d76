// Package ingest provisions indices, loads bulk files, and verifies counts
// against the search backend.
package ingest

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/opsguard/opsguard-seeder/internal/repo"
)

// Backend is the subset of the search backend used by the pipeline.
type Backend interface {
	DeleteIndex(ctx context.Context, index string) error
	CreateIndex(ctx context.Context, index string, body []byte) error
	Bulk(ctx context.Context, body []byte) (esutil.BulkIndexerResponse, error)
	Count(ctx context.Context, index string) (int64, error)
}

var _ Backend = (*repo.ElasticClient)(nil)
