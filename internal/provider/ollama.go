package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

// OllamaProvider embeds through a local Ollama server. Ollama has no
// asynchronous batch API, so batch-mode tenants fall back to direct
// processing.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) SupportsBatchProcessing() bool { return false }

type ollamaEmbedReq struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *OllamaProvider) GenerateEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(items))
	for i, it := range items {
		inputs[i] = it.Markdown
	}

	embeddings, err := p.embed(ctx, inputs)
	if err != nil || len(embeddings) != len(items) {
		return p.generateOneByOne(ctx, items), nil
	}

	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			Embedding:    embeddings[i],
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
		}
	}
	return results, nil
}

func (p *OllamaProvider) generateOneByOne(ctx context.Context, items []models.ProcessingItem) []models.EmbeddingResult {
	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
		}
		embeddings, err := p.embed(ctx, it.Markdown)
		if err != nil || len(embeddings) == 0 {
			continue
		}
		results[i].Embedding = embeddings[0]
	}
	return results
}

func (p *OllamaProvider) embed(ctx context.Context, input any) ([][]float32, error) {
	body, _ := json.Marshal(ollamaEmbedReq{Model: p.model, Input: input})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: unexpected status %d", resp.StatusCode)
	}

	var oResp ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}
	return oResp.Embeddings, nil
}

func (p *OllamaProvider) GenerateBatchEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	return nil, fmt.Errorf("ollama: %w", ErrBatchUnsupported)
}

func (p *OllamaProvider) GetBatchEmbeddings(ctx context.Context, batchID string, itemIDs []uuid.UUID, schemaName, entityType string) ([]models.EmbeddingResult, error) {
	return nil, fmt.Errorf("ollama: %w", ErrBatchUnsupported)
}
