package ingest

import (
	"context"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opsguard/opsguard-seeder/internal/estest"
	"github.com/opsguard/opsguard-seeder/internal/export"
	"github.com/opsguard/opsguard-seeder/internal/models"
	"github.com/opsguard/opsguard-seeder/internal/repo"
	"github.com/opsguard/opsguard-seeder/internal/scenario"
)

func TestPipelineAgainstInMemoryBackend(t *testing.T) {
	srv := estest.New("local-key")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := repo.NewElasticClient(repo.ElasticConfig{
		URL:         ts.URL,
		APIKey:      "local-key",
		Timeout:     5 * time.Second,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	if _, err := NewProvisioner(client, writeMappings(t, ""), nil).Run(ctx); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(srv.Indices()) != 7 {
		t.Fatalf("expected 7 indices, got %v", srv.Indices())
	}
	if strings.Contains(string(srv.Mapping("opsguard-incidents")), "settings") {
		t.Fatalf("settings reached the backend")
	}

	ds := scenario.NewGenerator(
		scenario.WithRand(rand.New(rand.NewSource(42))),
		scenario.WithNow(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)),
	).Generate()
	dir := t.TempDir()
	if _, err := export.NewWriter(dir, true, nil).WriteBulk(ds); err != nil {
		t.Fatalf("write bulk: %v", err)
	}

	ingestor := NewIngestor(client, IngestorConfig{DataDir: dir})
	for run := 0; run < 2; run++ {
		summary, err := ingestor.Run(ctx)
		if err != nil {
			t.Fatalf("ingest run %d: %v", run, err)
		}
		if summary.Indexed != ds.Total() || summary.Failed != 0 || summary.FailedChunks != 0 {
			t.Fatalf("run %d: unexpected summary %+v", run, summary)
		}
	}

	want := map[string]int{
		"opsguard-incidents": ds.Len(models.CollectionLogs),
		"opsguard-metrics":   ds.Len(models.CollectionMetrics),
		"opsguard-business":  ds.Len(models.CollectionBusiness),
		"opsguard-history":   ds.Len(models.CollectionIncidents),
	}
	for _, count := range NewVerifier(client, nil).Run(ctx) {
		if count.Err != nil {
			t.Fatalf("verify %s: %v", count.Index, count.Err)
		}
		// document ids make the second run overwrite rather than duplicate
		if int(count.Documents) != want[count.Index] {
			t.Fatalf("%s: expected %d documents, got %d", count.Index, want[count.Index], count.Documents)
		}
	}
	if srv.Count("logs-opsguard-incidents") != -1 {
		t.Fatalf("legacy index name reached the backend")
	}
}
