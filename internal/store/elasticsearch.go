package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrMissingIndex = errors.New("catalog index name is required")

// ElasticsearchCatalog reads the catalog snapshot from a search index whose
// documents have the models.Service JSON shape plus an "active" flag.
type ElasticsearchCatalog struct {
	client    *elasticsearch.Client
	index     string
	batchSize int
}

func NewElasticsearchCatalog(client *elasticsearch.Client, index string, batchSize int) *ElasticsearchCatalog {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ElasticsearchCatalog{client: client, index: index, batchSize: batchSize}
}

type serviceDocument struct {
	models.Service
	Active *bool `json:"active,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source serviceDocument `json:"_source"`
			Sort   []interface{}   `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// CatalogSnapshot pages through the index ordered by id using search_after.
func (c *ElasticsearchCatalog) CatalogSnapshot(ctx context.Context) ([]models.Service, error) {
	if c.index == "" {
		return nil, apperrors.NewCatalogUnavailableError(ErrMissingIndex)
	}

	var services []models.Service
	var searchAfter []interface{}
	for {
		page, last, err := c.fetchPage(ctx, searchAfter)
		if err != nil {
			return nil, err
		}
		for _, doc := range page {
			if doc.Active != nil && !*doc.Active {
				continue
			}
			services = append(services, doc.Service)
		}
		if len(page) < c.batchSize || last == nil {
			return services, nil
		}
		searchAfter = last
	}
}

func (c *ElasticsearchCatalog) fetchPage(ctx context.Context, searchAfter []interface{}) ([]serviceDocument, []interface{}, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
	}
	if len(searchAfter) > 0 {
		query["search_after"] = searchAfter
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	size := c.batchSize
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, apperrors.NewStoreTimeoutError("catalog_search", err)
		}
		return nil, nil, apperrors.NewCatalogUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("catalog search failed: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("decode search response: %w", err))
	}

	docs := make([]serviceDocument, 0, len(parsed.Hits.Hits))
	var last []interface{}
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
		last = hit.Sort
	}
	return docs, last, nil
}
