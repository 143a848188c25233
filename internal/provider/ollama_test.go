package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

func fakeOllamaServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)

		var body ollamaEmbedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		var n int
		switch v := body.Input.(type) {
		case string:
			n = 1
		case []any:
			n = len(v)
		}

		embeddings := make([][]float32, n)
		for i := range embeddings {
			embeddings[i] = []float32{1, 2, 3, 4}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaEmbedResp{Embeddings: embeddings})
	}))
}

func TestOllamaProvider_GenerateEmbeddings(t *testing.T) {
	srv := fakeOllamaServer(t)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 5*time.Second)

	items := testItems(2)
	results, err := p.GenerateEmbeddings(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, res := range results {
		assert.Equal(t, items[i].EntityID, res.EntityID)
		assert.Equal(t, []float32{1, 2, 3, 4}, res.Embedding)
		assert.Equal(t, models.EmbeddingStatusCompleted, res.Status())
	}
}

func TestOllamaProvider_GenerateEmbeddings_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 5*time.Second)

	items := testItems(3)
	results, err := p.GenerateEmbeddings(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, models.EmbeddingStatusFailed, res.Status())
	}
}

func TestOllamaProvider_BatchUnsupported(t *testing.T) {
	p := NewOllamaProvider("http://localhost:11434", "nomic-embed-text", time.Second)

	assert.False(t, p.SupportsBatchProcessing())

	_, err := p.GenerateBatchEmbeddings(context.Background(), testItems(1))
	assert.ErrorIs(t, err, ErrBatchUnsupported)

	_, err = p.GetBatchEmbeddings(context.Background(), "batch_1", []uuid.UUID{uuid.New()}, "acme", models.TableProducts)
	assert.ErrorIs(t, err, ErrBatchUnsupported)
}
