package queue

const (
	TypeEmbeddingGenerate    = "embedding:generate"
	TypeEmbeddingCheckStatus = "embedding:check_status"
)
