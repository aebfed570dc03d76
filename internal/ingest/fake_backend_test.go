package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esutil"
)

type fakeBackend struct {
	deleted   []string
	created   map[string][]byte
	deleteErr map[string]error
	createErr map[string]error

	bulkBodies [][]byte
	bulkErr    map[int]error // keyed by 1-based call index
	itemStatus func(doc []byte) int

	counts   map[string]int64
	countErr map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		created:   make(map[string][]byte),
		deleteErr: make(map[string]error),
		createErr: make(map[string]error),
		bulkErr:   make(map[int]error),
		counts:    make(map[string]int64),
		countErr:  make(map[string]error),
	}
}

func (f *fakeBackend) DeleteIndex(_ context.Context, index string) error {
	f.deleted = append(f.deleted, index)
	return f.deleteErr[index]
}

func (f *fakeBackend) CreateIndex(_ context.Context, index string, body []byte) error {
	if err := f.createErr[index]; err != nil {
		return err
	}
	f.created[index] = body
	return nil
}

func (f *fakeBackend) Bulk(_ context.Context, body []byte) (esutil.BulkIndexerResponse, error) {
	f.bulkBodies = append(f.bulkBodies, body)
	if err := f.bulkErr[len(f.bulkBodies)]; err != nil {
		return esutil.BulkIndexerResponse{}, err
	}

	var res esutil.BulkIndexerResponse
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var action map[string]struct {
			Index string `json:"_index"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			return res, err
		}
		if !scanner.Scan() {
			break
		}
		status := http.StatusCreated
		if f.itemStatus != nil {
			status = f.itemStatus(scanner.Bytes())
		}
		for op, meta := range action {
			item := esutil.BulkIndexerResponseItem{Index: meta.Index, Status: status}
			if status >= 300 {
				res.HasErrors = true
				item.Error.Type = "document_parsing_exception"
				item.Error.Reason = "failed to parse"
			}
			res.Items = append(res.Items, map[string]esutil.BulkIndexerResponseItem{op: item})
		}
	}
	return res, scanner.Err()
}

func (f *fakeBackend) Count(_ context.Context, index string) (int64, error) {
	if err := f.countErr[index]; err != nil {
		return 0, err
	}
	return f.counts[index], nil
}
