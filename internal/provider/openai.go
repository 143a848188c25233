package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

// Terminal states of an OpenAI batch job.
const (
	batchStatusCompleted = "completed"
	batchStatusFailed    = "failed"
	batchStatusExpired   = "expired"
	batchStatusCancelled = "cancelled"
)

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	// Timeouts live in the provider client, not the orchestration layer.
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) SupportsBatchProcessing() bool { return true }

func (p *OpenAIProvider) GenerateEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(items))
	for i, it := range items {
		inputs[i] = it.Markdown
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil || len(resp.Data) != len(items) {
		// The one-call form failed or came back short; retry per item so a
		// single bad input only fails its own row.
		return p.generateOneByOne(ctx, items), nil
	}

	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			Embedding:    resp.Data[i].Embedding,
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
		}
	}
	return results, nil
}

func (p *OpenAIProvider) generateOneByOne(ctx context.Context, items []models.ProcessingItem) []models.EmbeddingResult {
	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
		}
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{it.Markdown},
			Model: openai.EmbeddingModel(p.model),
		})
		if err != nil || len(resp.Data) == 0 {
			continue // nil embedding marks this item failed
		}
		results[i].Embedding = resp.Data[0].Embedding
	}
	return results
}

func (p *OpenAIProvider) GenerateBatchEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	upload := openai.UploadBatchFileRequest{FileName: "embeddings.jsonl"}
	for _, it := range items {
		upload.AddEmbedding(batchCustomID(it), openai.EmbeddingRequest{
			Input: it.Markdown,
			Model: openai.EmbeddingModel(p.model),
		})
	}

	resp, err := p.client.CreateBatchWithUploadFile(ctx, openai.CreateBatchWithUploadFileRequest{
		Endpoint:               openai.BatchEndpointEmbeddings,
		CompletionWindow:       "24h",
		Metadata:               map[string]any{"schema": items[0].SchemaName, "entity_type": items[0].EntityType},
		UploadBatchFileRequest: upload,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create batch: %w", err)
	}

	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
			BatchID:      resp.ID,
		}
	}
	return results, nil
}

func (p *OpenAIProvider) GetBatchEmbeddings(ctx context.Context, batchID string, itemIDs []uuid.UUID, schemaName, entityType string) ([]models.EmbeddingResult, error) {
	batch, err := p.client.RetrieveBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("openai retrieve batch %s: %w", batchID, err)
	}

	wanted := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}

	switch batch.Status {
	case batchStatusFailed, batchStatusExpired, batchStatusCancelled:
		// The whole job is dead; every item comes back as a failed result so
		// rows do not stay in flight forever.
		results := make([]models.EmbeddingResult, 0, len(itemIDs))
		for _, id := range itemIDs {
			results = append(results, models.EmbeddingResult{
				EntityID:   id,
				EntityType: entityType,
				SchemaName: schemaName,
			})
		}
		return results, nil
	case batchStatusCompleted:
		// fall through to output parsing
	default:
		return nil, nil // still validating or in progress
	}

	if batch.OutputFileID == nil {
		return nil, nil
	}

	content, err := p.client.GetFileContent(ctx, *batch.OutputFileID)
	if err != nil {
		return nil, fmt.Errorf("openai batch output %s: %w", batchID, err)
	}
	defer content.Close()

	var results []models.EmbeddingResult
	scanner := bufio.NewScanner(content)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // embedding lines run large

	for scanner.Scan() {
		var line batchOutputLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue // malformed line stays in flight, retried next cycle
		}

		schema, table, id, err := parseBatchCustomID(line.CustomID)
		if err != nil || schema != schemaName || table != entityType {
			continue
		}
		if _, ok := wanted[id]; !ok {
			continue
		}

		result := models.EmbeddingResult{
			EntityID:   id,
			EntityType: entityType,
			SchemaName: schemaName,
		}
		if line.Error == nil && line.Response != nil && line.Response.StatusCode == http.StatusOK {
			var body openai.EmbeddingResponse
			if err := json.Unmarshal(line.Response.Body, &body); err == nil && len(body.Data) > 0 {
				result.Embedding = body.Data[0].Embedding
			}
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("openai batch output %s: %w", batchID, err)
	}
	return results, nil
}

type batchOutputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int             `json:"status_code"`
		Body       json.RawMessage `json:"body"`
	} `json:"response"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func batchCustomID(it models.ProcessingItem) string {
	return fmt.Sprintf("%s:%s:%s", it.SchemaName, it.EntityType, it.EntityID)
}

func parseBatchCustomID(s string) (schema, entityType string, id uuid.UUID, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return "", "", uuid.Nil, fmt.Errorf("malformed custom id %q", s)
	}
	id, err = uuid.Parse(parts[2])
	if err != nil {
		return "", "", uuid.Nil, fmt.Errorf("malformed custom id %q: %w", s, err)
	}
	return parts[0], parts[1], id, nil
}
