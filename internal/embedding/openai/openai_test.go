package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingsResponse struct {
	Object string           `json:"object"`
	Data   []embeddingsData `json:"data"`
	Model  string           `json:"model"`
}

// fakeBackend answers each input with a 3-dim vector derived from its
// position, returning data entries in reverse order to exercise the
// index-based reordering.
func fakeBackend(t *testing.T, requests *[]embeddingsRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if requests != nil {
			*requests = append(*requests, req)
		}

		resp := embeddingsResponse{Object: "list", Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingsData{
				Object:    "embedding",
				Embedding: []float32{float32(i), float32(i) + 0.5, 0},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(t *testing.T, baseURL string, batchSize int) *Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:           baseURL + "/v1",
		Model:             "test-embed",
		BatchSize:         batchSize,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := fakeBackend(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 16)

	vectors, err := c.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 0.5, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1.5, 0}, vectors[1])
	assert.Equal(t, []float32{2, 2.5, 0}, vectors[2])
}

func TestEmbedBatchSplitsRequests(t *testing.T) {
	var requests []embeddingsRequest
	srv := fakeBackend(t, &requests)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 5)

	require.Len(t, requests, 3)
	assert.Equal(t, []string{"a", "b"}, requests[0].Input)
	assert.Equal(t, []string{"c", "d"}, requests[1].Input)
	assert.Equal(t, []string{"e"}, requests[2].Input)
}

func TestEmbedSetsDimensionLazily(t *testing.T) {
	srv := fakeBackend(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 16)

	assert.Equal(t, 0, c.Dimension())
	_, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 16)

	_, err := c.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	srv := fakeBackend(t, nil)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 16)

	vectors, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestKnownModelDimension(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	c, err := NewClient(Config{Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.Equal(t, 1536, c.Dimension())
}
