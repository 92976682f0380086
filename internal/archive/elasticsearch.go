// internal/archive/elasticsearch.go
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"jtracker-hub/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultIndex = "applications"

// ElasticsearchSink indexes applications by id so they can be searched by
// company, questions and notes.
type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(client *elasticsearch.Client, index string) *ElasticsearchSink {
	if index == "" {
		index = defaultIndex
	}
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

func (s *ElasticsearchSink) Archive(ctx context.Context, app models.Application) error {
	body, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(app.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index application %s: %w", app.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index application %s: %s", app.ID, res.Status())
	}
	return nil
}
