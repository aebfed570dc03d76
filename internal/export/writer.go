package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/opsguard/opsguard-seeder/internal/models"
)

// BulkIndexNames maps each collection to the index its bulk file targets.
var BulkIndexNames = map[models.Collection]string{
	models.CollectionLogs:      "logs-opsguard-incidents",
	models.CollectionMetrics:   "metrics-opsguard-system",
	models.CollectionBusiness:  "business-opsguard-metrics",
	models.CollectionIncidents: "incidents-opsguard-history",
}

var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://opsguard.ai/seeder/documents"))

// DocumentID derives a stable identifier from a collection and the record's
// position in it, so re-ingesting the same files overwrites documents.
func DocumentID(c models.Collection, seq int) string {
	return uuid.NewSHA1(documentNamespace, []byte(fmt.Sprintf("%s/%d", c, seq))).String()
}

// FileResult describes one written file.
type FileResult struct {
	Collection models.Collection
	Path       string
	Documents  int
}

// NDJSONPath returns the plain newline-delimited output path for a collection.
func NDJSONPath(dir string, c models.Collection) string {
	return filepath.Join(dir, string(c)+".json")
}

// BulkPath returns the bulk-format output path for a collection.
func BulkPath(dir string, c models.Collection) string {
	return filepath.Join(dir, string(c)+"_bulk.ndjson")
}

// Writer serialises datasets into an output directory.
type Writer struct {
	dir         string
	documentIDs bool
	logger      *slog.Logger
}

// NewWriter constructs a Writer. When documentIDs is set, bulk action lines
// carry a deterministic _id.
func NewWriter(dir string, documentIDs bool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, documentIDs: documentIDs, logger: logger}
}

// WriteNDJSON writes one <collection>.json file per collection, one JSON
// object per line.
func (w *Writer) WriteNDJSON(ds models.Dataset) ([]FileResult, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]FileResult, 0, len(models.Collections()))
	for _, c := range models.Collections() {
		path := NDJSONPath(w.dir, c)
		docs := ds.Documents(c)
		err := writeLines(path, func(enc *json.Encoder) error {
			for _, doc := range docs {
				if err := enc.Encode(doc); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return results, fmt.Errorf("write %s: %w", path, err)
		}
		w.logger.Info("wrote documents", slog.String("path", path), slog.Int("documents", len(docs)))
		results = append(results, FileResult{Collection: c, Path: path, Documents: len(docs)})
	}
	return results, nil
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

// WriteBulk writes one <collection>_bulk.ndjson file per collection with an
// action line preceding every document.
func (w *Writer) WriteBulk(ds models.Dataset) ([]FileResult, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]FileResult, 0, len(models.Collections()))
	for _, c := range models.Collections() {
		path := BulkPath(w.dir, c)
		index := BulkIndexNames[c]
		docs := ds.Documents(c)
		err := writeLines(path, func(enc *json.Encoder) error {
			for i, doc := range docs {
				action := bulkAction{Index: bulkMeta{Index: index}}
				if w.documentIDs {
					action.Index.ID = DocumentID(c, i)
				}
				if err := enc.Encode(action); err != nil {
					return err
				}
				if err := enc.Encode(doc); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return results, fmt.Errorf("write %s: %w", path, err)
		}
		w.logger.Info("wrote bulk documents", slog.String("path", path), slog.String("index", index), slog.Int("documents", len(docs)))
		results = append(results, FileResult{Collection: c, Path: path, Documents: len(docs)})
	}
	return results, nil
}

func writeLines(path string, fill func(*json.Encoder) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := fill(enc); err != nil {
		f.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
