package queue

import "github.com/hibiken/asynq"

// NewMux binds the two pipeline cycles to their task types. There are no
// other tasks; anything else on the queue is a bug, surfaced by asynq's
// handler-not-found error.
func NewMux(generate, checkStatus asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeEmbeddingGenerate, generate)
	mux.Handle(TypeEmbeddingCheckStatus, checkStatus)
	return mux
}
