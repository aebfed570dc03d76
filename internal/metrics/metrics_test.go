package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveRequestNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(backendRequestsTotal.WithLabelValues("count", OutcomeError))
	ObserveRequest("count", "timeout", time.Second)
	after := testutil.ToFloat64(backendRequestsTotal.WithLabelValues("count", OutcomeError))
	if after-before != 1 {
		t.Fatalf("expected unknown outcome to count as error, delta=%v", after-before)
	}
}

func TestObserveBulkItems(t *testing.T) {
	ok := bulkDocumentsTotal.WithLabelValues("opsguard-test", OutcomeSuccess)
	failed := bulkDocumentsTotal.WithLabelValues("opsguard-test", OutcomeError)
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ObserveBulkItems("opsguard-test", 198, 2)

	if got := testutil.ToFloat64(ok) - okBefore; got != 198 {
		t.Fatalf("expected 198 indexed, got %v", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 2 {
		t.Fatalf("expected 2 failed, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	ObserveGenerated("logs", 3)

	path := filepath.Join(t.TempDir(), "opsguard.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `opsguard_generated_documents_total{collection="logs"}`) {
		t.Fatalf("expected generated counter in textfile:\n%s", data)
	}

	if err := WriteTextfile("", reg); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
