package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stride-sync-server/internal/domain"
)

// HistoryRepository is the durable audit trail of resolved conflicts. The
// in-memory resolved list is bounded; this keeps the full record.
type HistoryRepository interface {
	Append(ctx context.Context, record *domain.ConflictRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ConflictRecord, error)
}

type historyRepo struct {
	baseURL string
	client  *http.Client
}

// NewHistoryRepository talks to a CouchDB database over plain HTTP.
func NewHistoryRepository(baseURL string) HistoryRepository {
	return &historyRepo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type historyDoc struct {
	ID     string                 `json:"_id"`
	Record *domain.ConflictRecord `json:"record"`
}

func (r *historyRepo) Append(ctx context.Context, record *domain.ConflictRecord) error {
	doc := historyDoc{
		ID:     fmt.Sprintf("resolved:%s", record.ID),
		Record: record,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/resolved:%s", r.baseURL, record.ID), bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to append resolved conflict: status %d", resp.StatusCode)
	}

	return nil
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ConflictRecord, error) {
	// Descending range scan over the resolved: keyspace.
	startKey := url.QueryEscape(`"resolved:￰"`)
	endKey := url.QueryEscape(`"resolved:"`)
	reqURL := fmt.Sprintf("%s/_all_docs?include_docs=true&descending=true&limit=%d&startkey=%s&endkey=%s",
		r.baseURL, limit, startKey, endKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Rows []struct {
			Doc historyDoc `json:"doc"`
		} `json:"rows"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	records := make([]*domain.ConflictRecord, 0, len(result.Rows))
	for _, row := range result.Rows {
		if row.Doc.Record != nil {
			records = append(records, row.Doc.Record)
		}
	}

	return records, nil
}
