package repo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/opsguard/opsguard-seeder/internal/utils"
)

func TestDeleteIndexTreatsNotFoundAsSuccess(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		hits++
		if req.Method != http.MethodDelete {
			t.Fatalf("unexpected method: %s", req.Method)
		}
		if req.URL.Path != "/opsguard-metrics" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		scheme, key, _ := strings.Cut(req.Header.Get("Authorization"), " ")
		if !strings.EqualFold(scheme, "ApiKey") || key != "test-key" {
			t.Fatalf("unexpected authorization header: %q", req.Header.Get("Authorization"))
		}
		return jsonResponse(http.StatusNotFound, `{"error":{"type":"index_not_found_exception"},"status":404}`), nil
	})

	if err := client.DeleteIndex(context.Background(), "opsguard-metrics"); err != nil {
		t.Fatalf("expected 404 to be benign, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected a single request for 404, got %d", hits)
	}
}

func TestCreateIndexAlreadyExistsIsSuccess(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		hits++
		if req.Method != http.MethodPut {
			t.Fatalf("unexpected method: %s", req.Method)
		}
		body, _ := io.ReadAll(req.Body)
		if !strings.Contains(string(body), `"mappings"`) {
			t.Fatalf("expected mapping body, got %s", body)
		}
		return jsonResponse(http.StatusBadRequest, `{"error":{"type":"resource_already_exists_exception"},"status":400}`), nil
	})

	if err := client.CreateIndex(context.Background(), "opsguard-history", []byte(`{"mappings":{"properties":{}}}`)); err != nil {
		t.Fatalf("expected already-exists to be success, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected no retry for already-exists, got %d requests", hits)
	}
}

func TestCreateIndexRetriesUntilSuccess(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		hits++
		if hits < 3 {
			return jsonResponse(http.StatusServiceUnavailable, `{"status":503}`), nil
		}
		return jsonResponse(http.StatusOK, `{"acknowledged":true,"index":"opsguard-active"}`), nil
	})

	if err := client.CreateIndex(context.Background(), "opsguard-active", nil); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestCreateIndexReportsLastStatusAfterExhaustingAttempts(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		hits++
		return jsonResponse(http.StatusBadRequest, `{"error":{"type":"mapper_parsing_exception","reason":"`+strings.Repeat("x", 300)+`"},"status":400}`), nil
	})

	err := client.CreateIndex(context.Background(), "opsguard-audit", []byte(`{}`))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Op != "create_index" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if len(statusErr.Body) != 150 {
		t.Fatalf("expected body truncated to 150 bytes, got %d", len(statusErr.Body))
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestTransportErrorsAreRetried(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		hits++
		return nil, errors.New("connection refused")
	})

	if err := client.DeleteIndex(context.Background(), "opsguard-business"); err == nil {
		t.Fatalf("expected transport error")
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestBulkDecodesItems(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/_bulk" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		if strings.Count(string(body), "\n") != 4 {
			t.Fatalf("expected 4 ndjson lines, got %q", body)
		}
		return jsonResponse(http.StatusOK, `{"took":3,"errors":true,"items":[
			{"index":{"_index":"opsguard-incidents","status":201}},
			{"index":{"_index":"opsguard-incidents","status":400,"error":{"type":"document_parsing_exception","reason":"bad field"}}}
		]}`), nil
	})

	payload := []byte("{\"index\":{\"_index\":\"opsguard-incidents\"}}\n{\"a\":1}\n{\"index\":{\"_index\":\"opsguard-incidents\"}}\n{\"a\":2}\n")
	res, err := client.Bulk(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasErrors || len(res.Items) != 2 {
		t.Fatalf("unexpected bulk response: %+v", res)
	}
	if res.Items[0]["index"].Status != 201 || res.Items[1]["index"].Error.Reason != "bad field" {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
}

func TestBulkNonOKIsStatusError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusRequestEntityTooLarge, `{"status":413}`), nil
	})

	_, err := client.Bulk(context.Background(), []byte("{}\n{}\n"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 StatusError, got %v", err)
	}
}

func TestCount(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/opsguard-metrics/_count":
			return jsonResponse(http.StatusOK, `{"count":42,"_shards":{"total":1}}`), nil
		case "/opsguard-missing/_count":
			return jsonResponse(http.StatusNotFound, `{"status":404}`), nil
		}
		t.Fatalf("unexpected path: %s", req.URL.Path)
		return nil, nil
	})

	n, err := client.Count(context.Background(), "opsguard-metrics")
	if err != nil || n != 42 {
		t.Fatalf("expected 42 documents, got %d (%v)", n, err)
	}
	if _, err := client.Count(context.Background(), "opsguard-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewElasticClientRequiresCredentials(t *testing.T) {
	_, err := NewElasticClient(ElasticConfig{URL: "https://es.example"})
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError for missing API key, got %v", err)
	}
}
