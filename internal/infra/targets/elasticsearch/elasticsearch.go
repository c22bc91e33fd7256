package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// ElasticsearchTarget writes each row as a document through the _bulk API.
// Timestamps are encoded as RFC3339 strings.
type ElasticsearchTarget struct {
	baseURL string
	client  *http.Client
}

func NewElasticsearchTarget(dsn string) *ElasticsearchTarget {
	return &ElasticsearchTarget{
		baseURL: normalizeURL(dsn),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *ElasticsearchTarget) do(ctx context.Context, method, path string, body []byte, contentType string) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func ok(status int) bool { return status >= 200 && status <= 299 }

func (t *ElasticsearchTarget) Connect(ctx context.Context) error {
	status, body, err := t.do(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return err
	}
	if !ok(status) {
		return fmt.Errorf("elasticsearch ping failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (t *ElasticsearchTarget) Close() error { return nil }

// CreateTableIfNotExists creates the index with an explicit mapping:
// double for numeric columns, keyword for categorical ones, date for the
// row index.
func (t *ElasticsearchTarget) CreateTableIfNotExists(ctx context.Context, schema domain.TableSchema) error {
	props := map[string]any{}
	if schema.HasIndex {
		props[domain.IndexColumnName] = map[string]string{"type": "date"}
	}
	for _, c := range schema.Columns {
		typ := "keyword"
		if c.Kind == domain.ColumnKindNumeric {
			typ = "double"
		}
		props[c.Name] = map[string]string{"type": typ}
	}
	payload, err := json.Marshal(map[string]any{"mappings": map[string]any{"properties": props}})
	if err != nil {
		return err
	}

	status, body, err := t.do(ctx, http.MethodPut, "/"+toIndexName(schema.Name), payload, "application/json")
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if status == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("elasticsearch create index failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
}

func (t *ElasticsearchTarget) TruncateTable(ctx context.Context, tableName string) error {
	payload := []byte(`{"query":{"match_all":{}}}`)
	status, body, err := t.do(ctx, http.MethodPost, "/"+toIndexName(tableName)+"/_delete_by_query", payload, "application/json")
	if err != nil {
		return err
	}
	if !ok(status) {
		return fmt.Errorf("elasticsearch truncate failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (t *ElasticsearchTarget) DropTable(ctx context.Context, tableName string) error {
	status, body, err := t.do(ctx, http.MethodDelete, "/"+toIndexName(tableName), nil, "")
	if err != nil {
		return err
	}
	if !ok(status) && status != http.StatusNotFound {
		return fmt.Errorf("elasticsearch delete index failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (t *ElasticsearchTarget) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	indexName := toIndexName(tableName)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(map[string]any{"index": map[string]string{"_index": indexName}}); err != nil {
			return err
		}
		doc := make(map[string]any, len(columns))
		for i, col := range columns {
			if ts, isTime := row[i].(time.Time); isTime {
				doc[col] = ts.UTC().Format(time.RFC3339)
				continue
			}
			doc[col] = row[i]
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	status, body, err := t.do(ctx, http.MethodPost, "/_bulk", buf.Bytes(), "application/x-ndjson")
	if err != nil {
		return err
	}
	if !ok(status) {
		return fmt.Errorf("elasticsearch bulk insert failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	_ = json.Unmarshal(body, &bulkResp)
	if bulkResp.Errors {
		return fmt.Errorf("elasticsearch bulk insert returned errors")
	}
	return nil
}

func normalizeURL(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "http://localhost:9200"
	}
	if strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") {
		return strings.TrimRight(dsn, "/")
	}
	return "http://" + strings.TrimRight(dsn, "/")
}

func toIndexName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return url.PathEscape(name)
}

func GetServerVersion(ctx context.Context, dsn string) (string, error) {
	t := NewElasticsearchTarget(dsn)
	status, body, err := t.do(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return "", err
	}
	if !ok(status) {
		return "", fmt.Errorf("status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	var root struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.Unmarshal(body, &root); err != nil {
		return "", err
	}
	return root.Version.Number, nil
}
