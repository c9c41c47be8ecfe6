package search

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"catalog/internal/rbac/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeES is a minimal Elasticsearch endpoint for one index.
type fakeES struct {
	mu       sync.Mutex
	exists   bool
	creates  int
	mapping  map[string]any
	docs     map[string]json.RawMessage
	refresh  []string
	lastBody map[string]any
	failAll  bool
}

func newFakeES() *fakeES {
	return &fakeES{docs: make(map[string]json.RawMessage)}
}

func (f *fakeES) reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		f.reply(w, http.StatusServiceUnavailable, `{"error":"unavailable"}`)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodHead && path == "":
		f.reply(w, http.StatusOK, "")

	case r.Method == http.MethodHead && path == "/products":
		if f.exists {
			f.reply(w, http.StatusOK, "")
		} else {
			f.reply(w, http.StatusNotFound, "")
		}

	case r.Method == http.MethodPut && path == "/products":
		f.creates++
		f.exists = true
		_ = json.NewDecoder(r.Body).Decode(&f.mapping)
		f.reply(w, http.StatusOK, `{"acknowledged":true}`)

	case r.Method == http.MethodDelete && path == "/products":
		f.exists = false
		f.docs = make(map[string]json.RawMessage)
		f.reply(w, http.StatusOK, `{"acknowledged":true}`)

	case strings.HasPrefix(path, "/products/_doc/"):
		id := strings.TrimPrefix(path, "/products/_doc/")
		f.refresh = append(f.refresh, r.URL.Query().Get("refresh"))
		switch r.Method {
		case http.MethodPut, http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			f.docs[id] = body
			f.reply(w, http.StatusCreated, fmt.Sprintf(`{"_id":%q,"result":"created"}`, id))
		case http.MethodDelete:
			if _, ok := f.docs[id]; !ok {
				f.reply(w, http.StatusNotFound, fmt.Sprintf(`{"_id":%q,"result":"not_found"}`, id))
				return
			}
			delete(f.docs, id)
			f.reply(w, http.StatusOK, fmt.Sprintf(`{"_id":%q,"result":"deleted"}`, id))
		}

	case strings.HasSuffix(path, "/_bulk"):
		f.bulk(w, r)

	case strings.HasSuffix(path, "/_search"):
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		f.reply(w, http.StatusOK, `{"hits":{"total":{"value":12,"relation":"eq"},"hits":[
			{"_id":"p1","_score":2.0,"_source":{"name":"Red shoe","price":19.5,"image":"red.png","createdAt":"2024-01-01T00:00:00Z"}}
		]}}`)

	default:
		f.reply(w, http.StatusBadRequest, `{"error":"unexpected request"}`)
	}
}

func (f *fakeES) bulk(w http.ResponseWriter, r *http.Request) {
	var items []string
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var action map[string]map[string]any
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			continue
		}
		meta, ok := action["index"]
		if !ok {
			continue
		}
		id, _ := meta["_id"].(string)
		if scanner.Scan() {
			f.docs[id] = json.RawMessage(scanner.Text())
		}
		items = append(items, fmt.Sprintf(`{"index":{"_index":"products","_id":%q,"status":201,"result":"created"}}`, id))
	}
	f.refresh = append(f.refresh, r.URL.Query().Get("refresh"))
	f.reply(w, http.StatusOK, `{"took":1,"errors":false,"items":[`+strings.Join(items, ",")+`]}`)
}

func newTestBackend(t *testing.T, es *fakeES) *ElasticBackend {
	t.Helper()
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)

	b, err := NewElasticBackend(ElasticConfig{Addresses: []string{srv.URL}, Index: "products"}, nil)
	require.NoError(t, err)
	return b
}

func TestElasticPing(t *testing.T) {
	es := newFakeES()
	b := newTestBackend(t, es)
	assert.NoError(t, b.Ping(context.Background()))

	es.mu.Lock()
	es.failAll = true
	es.mu.Unlock()
	assert.ErrorIs(t, b.Ping(context.Background()), apperrors.ErrBackendUnavailable)
}

func TestElasticEnsureIndexCreatesOnce(t *testing.T) {
	es := newFakeES()
	b := newTestBackend(t, es)
	ctx := context.Background()

	require.NoError(t, b.EnsureIndex(ctx))
	require.NoError(t, b.EnsureIndex(ctx))

	es.mu.Lock()
	defer es.mu.Unlock()
	assert.Equal(t, 1, es.creates)
	settings := es.mapping["settings"].(map[string]any)
	analyzer := settings["analysis"].(map[string]any)["analyzer"].(map[string]any)
	assert.Contains(t, analyzer, "product_analyzer")
	props := es.mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, false, props["image"].(map[string]any)["index"])
	assert.Equal(t, "float", props["price"].(map[string]any)["type"])
}

func TestElasticIndexAndDelete(t *testing.T) {
	es := newFakeES()
	b := newTestBackend(t, es)
	ctx := context.Background()

	require.NoError(t, b.IndexDocument(ctx, &Document{ID: "p1", Name: "Lamp", Price: 3}))
	require.NoError(t, b.DeleteDocument(ctx, "p1"))
	require.NoError(t, b.DeleteDocument(ctx, "p1"), "absent document must not fail")

	es.mu.Lock()
	defer es.mu.Unlock()
	assert.Empty(t, es.docs)
	assert.Equal(t, []string{"true", "true", "true"}, es.refresh)
}

func TestElasticRecreateAndBulk(t *testing.T) {
	es := newFakeES()
	b := newTestBackend(t, es)
	ctx := context.Background()

	require.NoError(t, b.IndexDocument(ctx, &Document{ID: "stale"}))
	require.NoError(t, b.RecreateIndex(ctx))

	n, err := b.BulkIndex(ctx, []*Document{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	es.mu.Lock()
	defer es.mu.Unlock()
	assert.True(t, es.exists)
	assert.Len(t, es.docs, 2)
	assert.NotContains(t, es.docs, "stale")
}

func TestElasticSearchQuery(t *testing.T) {
	es := newFakeES()
	b := newTestBackend(t, es)

	hits, err := b.Search(context.Background(), "red", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), hits.Total)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "p1", hits.Hits[0].ID)
	assert.Equal(t, 19.5, hits.Hits[0].Price)
	require.NotNil(t, hits.Hits[0].Score)

	es.mu.Lock()
	defer es.mu.Unlock()
	qs := es.lastBody["query"].(map[string]any)["query_string"].(map[string]any)
	assert.Equal(t, "*red*", qs["query"])
	assert.Equal(t, "AND", qs["default_operator"])
	assert.Equal(t, []any{"name^2", "image"}, qs["fields"])
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `a\:b`, escapeQuery(" a:b "))
	assert.Equal(t, `\(x\)`, escapeQuery("(x)"))
	assert.Equal(t, "plain", escapeQuery("plain"))
}
