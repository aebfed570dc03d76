package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/opsguard/opsguard-seeder/internal/metrics"
	"github.com/opsguard/opsguard-seeder/internal/utils"
)

const (
	opDeleteIndex = "delete_index"
	opCreateIndex = "create_index"
	opBulk        = "bulk"
	opCount       = "count"

	// errorBodyLimit bounds the response body kept on a StatusError.
	errorBodyLimit = 150
)

// ErrNotFound is returned when the backend answers 404 for an operation
// that has no benign interpretation of a missing resource.
var ErrNotFound = errors.New("resource not found")

// StatusError reports a non-success HTTP status from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// ElasticConfig configures ElasticClient. Transport overrides the HTTP
// round tripper and is mostly useful in tests.
type ElasticConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Transport   http.RoundTripper
	Logger      *slog.Logger
}

// ElasticClient issues index management, bulk, and count requests against
// an Elasticsearch-compatible backend with a fixed retry policy.
type ElasticClient struct {
	es          *elasticsearch.Client
	timeout     time.Duration
	maxAttempts uint
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewElasticClient builds a client authenticated with an API key. The
// transport's own retries are disabled so only the client policy applies.
func NewElasticClient(cfg ElasticConfig) (*ElasticClient, error) {
	url := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if url == "" {
		return nil, utils.NewAppError("elastic", "backend URL not configured", nil)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, utils.NewAppError("elastic", "backend API key not configured", nil)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{url},
		APIKey:       cfg.APIKey,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay < 0 {
		delay = 0
	}

	return &ElasticClient{
		es:          es,
		timeout:     timeout,
		maxAttempts: uint(attempts),
		retryDelay:  delay,
		logger:      logger,
	}, nil
}

// DeleteIndex removes an index. A missing index is not an error.
func (c *ElasticClient) DeleteIndex(ctx context.Context, index string) error {
	_, err := c.do(ctx, opDeleteIndex, func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Indices.Delete([]string{index}, c.es.Indices.Delete.WithContext(ctx))
	}, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// CreateIndex creates an index with an optional JSON body. An index that
// already exists counts as created.
func (c *ElasticClient) CreateIndex(ctx context.Context, index string, body []byte) error {
	_, err := c.do(ctx, opCreateIndex, func(ctx context.Context) (*esapi.Response, error) {
		opts := []func(*esapi.IndicesCreateRequest){c.es.Indices.Create.WithContext(ctx)}
		if len(body) > 0 {
			opts = append(opts, c.es.Indices.Create.WithBody(bytes.NewReader(body)))
		}
		return c.es.Indices.Create(index, opts...)
	}, alreadyExists)
	return err
}

// Bulk submits one newline-delimited action/document payload. Anything
// other than HTTP 200 is returned as an error; per-item outcomes are left
// to the caller.
func (c *ElasticClient) Bulk(ctx context.Context, body []byte) (esutil.BulkIndexerResponse, error) {
	var out esutil.BulkIndexerResponse
	resp, err := c.do(ctx, opBulk, func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Bulk(bytes.NewReader(body), c.es.Bulk.WithContext(ctx))
	}, nil)
	if err != nil {
		return out, err
	}
	if resp.statusCode != http.StatusOK {
		return out, &StatusError{Op: opBulk, StatusCode: resp.statusCode, Body: utils.Truncate(string(resp.body), errorBodyLimit)}
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return out, fmt.Errorf("decode bulk response: %w", err)
	}
	return out, nil
}

// Count returns the number of documents in an index. A missing index
// yields ErrNotFound.
func (c *ElasticClient) Count(ctx context.Context, index string) (int64, error) {
	resp, err := c.do(ctx, opCount, func(ctx context.Context) (*esapi.Response, error) {
		return c.es.Count(c.es.Count.WithContext(ctx), c.es.Count.WithIndex(index))
	}, nil)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Count *int64 `json:"count"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	if payload.Count == nil {
		return 0, fmt.Errorf("count response for %s has no count field", index)
	}
	return *payload.Count, nil
}

type response struct {
	statusCode int
	body       []byte
}

type call func(ctx context.Context) (*esapi.Response, error)

// acceptFunc lets an operation treat a specific failure status as success.
type acceptFunc func(status int, body []byte) bool

func alreadyExists(status int, body []byte) bool {
	return status == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists"))
}

// do runs fn under the retry policy. A 404 stops immediately with
// ErrNotFound, accepted statuses stop immediately as success, and every
// other failure is retried until attempts run out.
func (c *ElasticClient) do(ctx context.Context, op string, fn call, accept acceptFunc) (response, error) {
	var (
		result   response
		notFound bool
	)

	err := retry.Do(
		func() error {
			res, err := c.attempt(ctx, op, fn)
			if err != nil {
				return err
			}
			switch {
			case res.statusCode == http.StatusNotFound:
				notFound = true
				return nil
			case res.statusCode >= 200 && res.statusCode < 300:
				result = res
				return nil
			case accept != nil && accept(res.statusCode, res.body):
				result = res
				return nil
			default:
				return &StatusError{Op: op, StatusCode: res.statusCode, Body: utils.Truncate(string(res.body), errorBodyLimit)}
			}
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("backend request attempt failed",
				slog.String("op", op),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return response{}, err
	}
	if notFound {
		return response{statusCode: http.StatusNotFound}, ErrNotFound
	}
	return result, nil
}

// attempt performs a single request bounded by the per-attempt timeout and
// fully drains the body so the connection can be reused.
func (c *ElasticClient) attempt(ctx context.Context, op string, fn call) (response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := fn(attemptCtx)
	if err != nil {
		metrics.ObserveRequest(op, metrics.OutcomeError, time.Since(start))
		return response{}, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		metrics.ObserveRequest(op, metrics.OutcomeError, time.Since(start))
		return response{}, fmt.Errorf("%s: read response: %w", op, err)
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case res.StatusCode == http.StatusNotFound:
		outcome = metrics.OutcomeNotFound
	case res.IsError():
		outcome = metrics.OutcomeError
	}
	metrics.ObserveRequest(op, outcome, time.Since(start))
	return response{statusCode: res.StatusCode, body: body}, nil
}
