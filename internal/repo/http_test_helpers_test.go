package repo

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newTestClient wires rt into an ElasticClient with a short retry delay.
func newTestClient(t *testing.T, rt roundTripFunc) *ElasticClient {
	t.Helper()
	client, err := NewElasticClient(ElasticConfig{
		URL:         "https://es.example:443/",
		APIKey:      "test-key",
		Timeout:     time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Transport:   rt,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// jsonResponse mimics a backend answer, including the product header the
// client checks on successful responses.
func jsonResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     header,
	}
}
