package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/opsguard/opsguard-seeder/internal/metrics"
	"github.com/opsguard/opsguard-seeder/internal/repo"
	"github.com/opsguard/opsguard-seeder/internal/ui"
	"github.com/opsguard/opsguard-seeder/internal/utils"
)

// DefaultChunkLines is 200 action/document pairs per bulk request.
const DefaultChunkLines = 400

const failureReasonLimit = 120

// BulkTask maps a generated bulk file onto its target index. LegacyIndex
// is the index name written by the generator.
type BulkTask struct {
	File        string
	LegacyIndex string
	Index       string
}

// DefaultBulkTasks lists the generated bulk files in load order.
func DefaultBulkTasks() []BulkTask {
	return []BulkTask{
		{File: "logs_bulk.ndjson", LegacyIndex: "logs-opsguard-incidents", Index: "opsguard-incidents"},
		{File: "metrics_bulk.ndjson", LegacyIndex: "metrics-opsguard-system", Index: "opsguard-metrics"},
		{File: "business_metrics_bulk.ndjson", LegacyIndex: "business-opsguard-metrics", Index: "opsguard-business"},
		{File: "incidents_history_bulk.ndjson", LegacyIndex: "incidents-opsguard-history", Index: "opsguard-history"},
	}
}

// FileSummary reports the load of one bulk file.
type FileSummary struct {
	File         string
	Index        string
	Documents    int
	Indexed      int
	Failed       int
	Chunks       int
	FailedChunks int
	Mean         time.Duration
	P95          time.Duration
}

// Summary accumulates results across every bulk file of a run.
type Summary struct {
	Indexed      int
	Failed       int
	FailedChunks int
	Files        []FileSummary
	Skipped      []string
}

// IngestorConfig configures an Ingestor.
type IngestorConfig struct {
	DataDir    string
	ChunkLines int
	Tasks      []BulkTask
	Logger     *slog.Logger
	Progress   ui.Progress
}

// Ingestor streams generated bulk files into the backend in fixed-size
// chunks, one request at a time.
type Ingestor struct {
	backend    Backend
	dataDir    string
	chunkLines int
	tasks      []BulkTask
	logger     *slog.Logger
	progress   ui.Progress
}

// NewIngestor applies defaults for chunk size, tasks, logger, and progress.
func NewIngestor(backend Backend, cfg IngestorConfig) *Ingestor {
	chunk := cfg.ChunkLines
	if chunk < 2 {
		chunk = DefaultChunkLines
	}
	chunk -= chunk % 2
	tasks := cfg.Tasks
	if len(tasks) == 0 {
		tasks = DefaultBulkTasks()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = ui.Noop{}
	}
	return &Ingestor{
		backend:    backend,
		dataDir:    cfg.DataDir,
		chunkLines: chunk,
		tasks:      tasks,
		logger:     logger,
		progress:   progress,
	}
}

// CheckInputs fails when the data directory is missing or holds none of
// the expected bulk files.
func CheckInputs(dataDir string, tasks []BulkTask) error {
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return utils.NewAppError("ingest", fmt.Sprintf("data not found in %s; run: opsguard-datagen --output-dir %s --bulk", dataDir, dataDir), err)
	}
	for _, task := range tasks {
		if _, err := os.Stat(filepath.Join(dataDir, task.File)); err == nil {
			return nil
		}
	}
	return utils.NewAppError("ingest", fmt.Sprintf("no bulk files in %s; run: opsguard-datagen --output-dir %s --bulk", dataDir, dataDir), nil)
}

// Run loads every task's file. Missing files and failed chunks are
// reported in the summary; only context cancellation returns an error.
func (i *Ingestor) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	for _, task := range i.tasks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		path := filepath.Join(i.dataDir, task.File)
		lines, err := readLines(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				i.logger.Warn("bulk file not found, skipping", slog.String("file", task.File))
			} else {
				i.logger.Error("bulk file unreadable, skipping", slog.String("file", task.File), slog.Any("error", err))
			}
			summary.Skipped = append(summary.Skipped, task.File)
			continue
		}

		i.logger.Info("loading bulk file", slog.String("file", task.File), slog.String("index", task.Index))
		fileSummary, err := i.load(ctx, task, RewriteIndex(lines, task.LegacyIndex, task.Index))
		summary.Indexed += fileSummary.Indexed
		summary.Failed += fileSummary.Failed
		summary.FailedChunks += fileSummary.FailedChunks
		summary.Files = append(summary.Files, fileSummary)
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (i *Ingestor) load(ctx context.Context, task BulkTask, lines []string) (FileSummary, error) {
	file := FileSummary{File: task.File, Index: task.Index, Documents: len(lines) / 2}
	latency := utils.NewLatencyTracker(0)

	i.progress.Start(fmt.Sprintf("%s: 0/%d documents", task.Index, file.Documents))
	defer i.progress.Stop()

	for _, chunk := range Chunk(lines, i.chunkLines) {
		if err := ctx.Err(); err != nil {
			file.P95 = latency.Percentile(95)
			return file, err
		}
		file.Chunks++

		body := strings.Join(chunk, "\n") + "\n"
		start := time.Now()
		res, err := i.backend.Bulk(ctx, []byte(body))
		latency.Observe(time.Since(start))
		if err != nil {
			file.FailedChunks++
			i.logger.Error("bulk chunk failed",
				slog.String("index", task.Index),
				slog.Int("chunk", file.Chunks),
				slog.Int("status", chunkStatus(err)),
				slog.Any("error", err),
			)
			continue
		}

		ok, failed, reason := tallyItems(res)
		file.Indexed += ok
		file.Failed += failed
		metrics.ObserveBulkItems(task.Index, ok, failed)

		if failed > 0 {
			i.logger.Warn("bulk chunk partially failed",
				slog.String("index", task.Index),
				slog.Int("ok", ok),
				slog.Int("failed", failed),
				slog.String("first_error", reason),
			)
		} else {
			i.logger.Debug("bulk chunk indexed",
				slog.String("index", task.Index),
				slog.Int("indexed", file.Indexed),
				slog.Int("documents", file.Documents),
			)
		}
		i.progress.Update(fmt.Sprintf("%s: %d/%d documents", task.Index, file.Indexed, file.Documents))
	}

	file.Mean = latency.Mean()
	file.P95 = latency.Percentile(95)
	i.logger.Info("bulk file loaded",
		slog.String("file", task.File),
		slog.String("index", task.Index),
		slog.Int("indexed", file.Indexed),
		slog.Int("failed", file.Failed),
		slog.Int("failed_chunks", file.FailedChunks),
		slog.Duration("mean", file.Mean),
		slog.Duration("p95", file.P95),
	)
	return file, nil
}

// tallyItems counts items with status 200 or 201 as indexed and every
// other item as failed, returning the first failure reason.
func tallyItems(res esutil.BulkIndexerResponse) (ok, failed int, reason string) {
	for _, item := range res.Items {
		for _, result := range item {
			if result.Status == http.StatusOK || result.Status == http.StatusCreated {
				ok++
				continue
			}
			failed++
			if reason == "" {
				reason = utils.Truncate(fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason), failureReasonLimit)
			}
		}
	}
	return ok, failed, reason
}

func chunkStatus(err error) int {
	var statusErr *repo.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// readLines returns the file's non-blank lines. Blank lines would break
// the action/document pairing that RewriteIndex and Chunk rely on.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Chunk partitions lines into consecutive groups of at most size lines.
func Chunk(lines []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkLines
	}
	chunks := make([][]string, 0, (len(lines)+size-1)/size)
	for start := 0; start < len(lines); start += size {
		end := min(start+size, len(lines))
		chunks = append(chunks, lines[start:end])
	}
	return chunks
}

// RewriteIndex points every action line (even positions) naming legacy at
// target instead. Document lines are left untouched. Rewriting is
// idempotent.
func RewriteIndex(lines []string, legacy, target string) []string {
	if legacy == "" || legacy == target {
		return lines
	}
	out := make([]string, len(lines))
	for idx, line := range lines {
		if idx%2 == 0 {
			line = rewriteAction(line, legacy, target)
		}
		out[idx] = line
	}
	return out
}

func rewriteAction(line, legacy, target string) string {
	var action map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &action); err != nil {
		return rewriteText(line, legacy, target)
	}

	changed := false
	for op, raw := range action {
		var meta map[string]json.RawMessage
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}
		var index string
		if err := json.Unmarshal(meta["_index"], &index); err != nil || index != legacy {
			continue
		}
		encoded, err := json.Marshal(target)
		if err != nil {
			continue
		}
		meta["_index"] = encoded
		rewritten, err := json.Marshal(meta)
		if err != nil {
			continue
		}
		action[op] = rewritten
		changed = true
	}
	if !changed {
		return line
	}
	out, err := json.Marshal(action)
	if err != nil {
		return rewriteText(line, legacy, target)
	}
	return string(out)
}

func rewriteText(line, legacy, target string) string {
	return strings.NewReplacer(
		`"_index": "`+legacy+`"`, `"_index": "`+target+`"`,
		`"_index":"`+legacy+`"`, `"_index":"`+target+`"`,
	).Replace(line)
}
