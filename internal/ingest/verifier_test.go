package ingest

import (
	"context"
	"testing"

	"github.com/opsguard/opsguard-seeder/internal/repo"
)

func TestVerifierReportsEachIndex(t *testing.T) {
	backend := newFakeBackend()
	backend.counts["opsguard-incidents"] = 523
	backend.counts["opsguard-metrics"] = 450
	backend.counts["opsguard-business"] = 200
	backend.countErr["opsguard-history"] = repo.ErrNotFound

	counts := NewVerifier(backend, nil).Run(context.Background())
	if len(counts) != 4 {
		t.Fatalf("expected four counts, got %d", len(counts))
	}
	if counts[0].Index != "opsguard-incidents" || counts[0].Documents != 523 || counts[0].Err != nil {
		t.Fatalf("unexpected first count: %+v", counts[0])
	}
	if counts[3].Err == nil {
		t.Fatalf("expected history verification failure")
	}
}
