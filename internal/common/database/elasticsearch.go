// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"

	"jtracker-hub/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient holds the client for the searchable application archive.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch builds a client for the configured cluster. Gateway errors
// are retried so a rolling restart does not drop archived documents.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: no address configured")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetry,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}
