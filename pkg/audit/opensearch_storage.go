package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// DefaultIndex is the index audit events are written to unless overridden.
const DefaultIndex = "twofactor-audit"

// OpenSearchStorage indexes audit events in OpenSearch. It implements
// Storage, BatchStorage and Querier.
type OpenSearchStorage struct {
	client opensearchapi.Transport
	index  string
}

// NewOpenSearchStorage returns a storage writing to index through client,
// usually an *opensearch.Client. An empty index selects DefaultIndex.
func NewOpenSearchStorage(client opensearchapi.Transport, index string) *OpenSearchStorage {
	if index == "" {
		index = DefaultIndex
	}
	return &OpenSearchStorage{client: client, index: index}
}

// Store implements Storage.
func (s *OpenSearchStorage) Store(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: event.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageNotAvailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index: %s", ErrStorageFailed, res.String())
	}
	return nil
}

// StoreBatch implements BatchStorage using the bulk API.
func (s *OpenSearchStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		meta := map[string]map[string]string{"index": {"_index": s.index, "_id": e.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFailed, err)
		}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFailed, err)
		}
	}

	res, err := opensearchapi.BulkRequest{Body: &buf}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageNotAvailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: bulk: %s", ErrStorageFailed, res.String())
	}

	var reply struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil && err != io.EOF {
		return fmt.Errorf("%w: decode bulk reply: %w", ErrStorageFailed, err)
	}
	if reply.Errors {
		return fmt.Errorf("%w: bulk reply reported item errors", ErrStorageFailed)
	}
	return nil
}

// Query implements Querier. Results are ordered newest first.
func (s *OpenSearchStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	body, err := json.Marshal(searchBody(criteria))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageNotAvailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", ErrStorageFailed, res.String())
	}

	var reply struct {
		Hits struct {
			Hits []struct {
				Source Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: decode search reply: %w", ErrStorageFailed, err)
	}

	events := make([]Event, 0, len(reply.Hits.Hits))
	for _, h := range reply.Hits.Hits {
		events = append(events, h.Source)
	}
	return events, nil
}

func searchBody(c Criteria) map[string]any {
	var filters []map[string]any
	term := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]any{"term": map[string]any{field: value}})
		}
	}
	term("user_id", c.UserID)
	term("action", c.Action)
	term("result", string(c.Result))

	if !c.Since.IsZero() || !c.Until.IsZero() {
		r := map[string]any{}
		if !c.Since.IsZero() {
			r["gte"] = c.Since.UTC().Format(time.RFC3339Nano)
		}
		if !c.Until.IsZero() {
			r["lt"] = c.Until.UTC().Format(time.RFC3339Nano)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"created_at": r}})
	}

	size := c.Limit
	if size <= 0 {
		size = 100
	}

	return map[string]any{
		"size":  size,
		"sort":  []any{map[string]any{"created_at": map[string]any{"order": "desc"}}},
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
	}
}
