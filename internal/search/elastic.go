package search

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
	"sync"

	"catalog/internal/rbac/apperrors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

const analyzerName = "product_analyzer"

// indexBody is the settings and mapping used when the index is created.
var indexBody = map[string]any{
	"settings": map[string]any{
		"analysis": map[string]any{
			"analyzer": map[string]any{
				analyzerName: map[string]any{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase"},
				},
			},
		},
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"name": map[string]any{
				"type":            "text",
				"analyzer":        analyzerName,
				"search_analyzer": analyzerName,
			},
			"price":     map[string]any{"type": "float"},
			"image":     map[string]any{"type": "text", "index": false},
			"createdAt": map[string]any{"type": "date"},
			"updatedAt": map[string]any{"type": "date"},
		},
	},
}

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	// Transport is only set by tests
	Transport http.RoundTripper
}

// ElasticBackend talks to Elasticsearch through the official client.
type ElasticBackend struct {
	cfg    ElasticConfig
	logger *slog.Logger

	mu         sync.RWMutex
	client     *elasticsearch.Client
	indexReady bool
}

var _ Backend = (*ElasticBackend)(nil)

func NewElasticBackend(cfg ElasticConfig, logger *slog.Logger) (*ElasticBackend, error) {
	if cfg.Index == "" {
		cfg.Index = "products"
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &ElasticBackend{cfg: cfg, logger: logger}
	if err := b.Reconnect(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reconnect replaces the client and forgets the cached index state.
func (b *ElasticBackend) Reconnect() error {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: b.cfg.Addresses,
		Username:  b.cfg.Username,
		Password:  b.cfg.Password,
		Transport: b.cfg.Transport,
	})
	if err != nil {
		return fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.indexReady = false
	b.mu.Unlock()
	return nil
}

func (b *ElasticBackend) es() *elasticsearch.Client {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.client
}

func (b *ElasticBackend) Ping(ctx context.Context) error {
	es := b.es()
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return unavailable("ping", err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("%w: ping returned %s", apperrors.ErrBackendUnavailable, res.Status())
	}
	return nil
}

func (b *ElasticBackend) EnsureIndex(ctx context.Context) error {
	b.mu.RLock()
	ready := b.indexReady
	b.mu.RUnlock()
	if ready {
		return nil
	}

	es := b.es()
	res, err := es.Indices.Exists([]string{b.cfg.Index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return unavailable("index exists", err)
	}
	drain(res)

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		if err := b.createIndex(ctx, es); err != nil {
			return err
		}
	default:
		return responseError("index exists", res)
	}

	b.mu.Lock()
	b.indexReady = true
	b.mu.Unlock()
	return nil
}

func (b *ElasticBackend) createIndex(ctx context.Context, es *elasticsearch.Client) error {
	body, err := json.Marshal(indexBody)
	if err != nil {
		return err
	}
	res, err := es.Indices.Create(b.cfg.Index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return unavailable("create index", err)
	}
	defer drain(res)
	if res.IsError() {
		msg := readBody(res)
		// a concurrent creator may have won
		if !strings.Contains(msg, "resource_already_exists_exception") {
			return classify("create index", res.StatusCode, res.Status(), msg)
		}
		return nil
	}
	b.logger.Info("created search index", slog.String("index", b.cfg.Index))
	return nil
}

func (b *ElasticBackend) IndexDocument(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	es := b.es()
	res, err := es.Index(b.cfg.Index, bytes.NewReader(body),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(doc.ID),
		es.Index.WithRefresh("true"),
	)
	if err != nil {
		return unavailable("index document", err)
	}
	defer drain(res)
	if res.IsError() {
		return responseError("index document", res)
	}
	return nil
}

func (b *ElasticBackend) DeleteDocument(ctx context.Context, id string) error {
	es := b.es()
	res, err := es.Delete(b.cfg.Index, id,
		es.Delete.WithContext(ctx),
		es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return unavailable("delete document", err)
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete document", res)
	}
	return nil
}

func (b *ElasticBackend) RecreateIndex(ctx context.Context) error {
	es := b.es()
	res, err := es.Indices.Delete([]string{b.cfg.Index},
		es.Indices.Delete.WithContext(ctx),
		es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return unavailable("delete index", err)
	}
	drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}

	b.mu.Lock()
	b.indexReady = false
	b.mu.Unlock()
	return b.EnsureIndex(ctx)
}

// BulkIndex writes docs with a single refresh at the end and returns how many were indexed.
func (b *ElasticBackend) BulkIndex(ctx context.Context, docs []*Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     b.es(),
		Index:      b.cfg.Index,
		NumWorkers: 1,
		Refresh:    "true",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return 0, err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				if firstErr == nil {
					firstErr = err
				}
				b.logger.Error("bulk index item failed",
					slog.String("id", item.DocumentID),
					slog.Any("error", err),
				)
			},
		})
		if err != nil {
			return 0, unavailable("bulk add", err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return 0, unavailable("bulk close", err)
	}

	stats := bi.Stats()
	indexed := 0
	if stats.NumFlushed > stats.NumFailed {
		indexed = int(stats.NumFlushed - stats.NumFailed)
	}
	if stats.NumFailed > 0 {
		return indexed, fmt.Errorf("bulk index: %d of %d documents failed: %w", stats.NumFailed, len(docs), firstErr)
	}
	return indexed, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source struct {
				Name      string  `json:"name"`
				Price     float64 `json:"price"`
				Image     string  `json:"image"`
				CreatedAt string  `json:"createdAt"`
				UpdatedAt string  `json:"updatedAt"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a wildcard query_string over name (boosted) and image.
func (b *ElasticBackend) Search(ctx context.Context, keyword string, from, size int) (*Hits, error) {
	query := map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query":            "*" + escapeQuery(keyword) + "*",
				"fields":           []string{"name^2", "image"},
				"default_operator": "AND",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	es := b.es()
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(b.cfg.Index),
		es.Search.WithBody(bytes.NewReader(body)),
		es.Search.WithFrom(from),
		es.Search.WithSize(size),
		es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, unavailable("search", err)
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return &Hits{Hits: []Hit{}}, nil
	}
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	out := &Hits{Total: parsed.Hits.Total.Value, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:        h.ID,
			Score:     h.Score,
			Name:      h.Source.Name,
			Price:     h.Source.Price,
			Image:     h.Source.Image,
			CreatedAt: h.Source.CreatedAt,
			UpdatedAt: h.Source.UpdatedAt,
		})
	}
	return out, nil
}

// escapeQuery backslash-escapes query_string reserved characters so the keyword is matched literally.
func escapeQuery(s string) string {
	const reserved = `\+-=&|!(){}[]^"~*?:/<>`
	var sb strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if strings.ContainsRune(reserved, r) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrBackendUnavailable, err)
}

// responseError classifies an error response: 5xx and 429 mean the backend cannot take writes right now.
func responseError(op string, res *esapi.Response) error {
	return classify(op, res.StatusCode, res.Status(), readBody(res))
}

func classify(op string, code int, status, body string) error {
	msg := fmt.Sprintf("%s: elasticsearch returned %s: %s", op, status, body)
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", apperrors.ErrBackendUnavailable, msg)
	}
	return errors.New(msg)
}

func readBody(res *esapi.Response) string {
	if res.Body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return strings.TrimSpace(string(data))
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
