package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sportevents/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const defaultResultSize = 50

// EventIndex keeps a copy of every event in Elasticsearch for text search.
type EventIndex struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewEventIndex connects to url and creates index if it does not exist yet.
func NewEventIndex(ctx context.Context, url, index string, logger *zap.Logger) (*EventIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{url},
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	idx := &EventIndex{client: es, index: index, logger: logger}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}
	return idx, nil
}

func (i *EventIndex) ensureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		i.logger.Debug("Elasticsearch index already exists", zap.String("index", i.index))
		return nil
	}

	body, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	createRes, err := esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}
	i.logger.Info("Created Elasticsearch index", zap.String("index", i.index))
	return nil
}

func indexMapping() map[string]any {
	keyword := map[string]any{"type": "keyword"}
	folded := map[string]any{"type": "keyword", "normalizer": "fold"}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]any{
				"normalizer": map[string]any{
					"fold": map[string]any{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id": keyword,
				"name": map[string]any{
					"type": "text",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"description": map[string]any{"type": "text"},
				"sport":       folded,
				"skillLevel":  folded,
				"venueId":     keyword,
				"organizerId": keyword,
				"startTime":   map[string]any{"type": "date"},
				"endTime":     map[string]any{"type": "date"},
				"maxCapacity": map[string]any{"type": "integer"},
				"booked":      map[string]any{"type": "integer"},
				"location":    map[string]any{"type": "object", "enabled": false},
			},
		},
	}
}

// IndexEvent stores or replaces the event document.
func (i *EventIndex) IndexEvent(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: event.ID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "wait_for",
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

// Search runs query and returns the matching events, best match first.
func (i *EventIndex) Search(ctx context.Context, query models.EventSearch) ([]models.Event, error) {
	body, err := json.Marshal(map[string]any{
		"query": buildQuery(query),
		"sort":  buildSort(query),
		"size":  defaultResultSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source models.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	events := make([]models.Event, len(response.Hits.Hits))
	for n, hit := range response.Hits.Hits {
		events[n] = hit.Source
	}
	return events, nil
}

func buildQuery(q models.EventSearch) map[string]any {
	var must []map[string]any
	var filter []map[string]any

	if text := strings.TrimSpace(q.Query); text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     text,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		})
	}
	if q.Sport != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"sport": strings.ToLower(q.Sport)}})
	}
	if q.SkillLevel != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"skillLevel": strings.ToLower(q.SkillLevel)}})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]any{"bool": boolQuery}
}

func buildSort(q models.EventSearch) []map[string]any {
	if strings.TrimSpace(q.Query) != "" {
		return []map[string]any{
			{"_score": map[string]any{"order": "desc"}},
			{"startTime": map[string]any{"order": "asc"}},
		}
	}
	return []map[string]any{
		{"startTime": map[string]any{"order": "asc"}},
	}
}
