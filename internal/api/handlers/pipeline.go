package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Enqueuer queues pipeline cycles for the worker. Satisfied by *queue.Client.
type Enqueuer interface {
	EnqueueGenerate() error
	EnqueueCheckStatus() error
}

type PipelineHandler struct {
	queue Enqueuer
}

func NewPipelineHandler(q Enqueuer) *PipelineHandler {
	return &PipelineHandler{queue: q}
}

type runRequest struct {
	Action string `json:"action"`
}

// Run triggers a pipeline cycle outside its schedule. The cycle still runs on
// the worker under the run lock, so a manual trigger never races a scheduled
// one.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	var err error
	switch req.Action {
	case "generate":
		err = h.queue.EnqueueGenerate()
	case "check_status":
		err = h.queue.EnqueueCheckStatus()
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be generate or check_status"})
		return
	}
	if err != nil {
		slog.Error("pipeline trigger failed", "action", req.Action, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to queue cycle"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "action": req.Action})
}
