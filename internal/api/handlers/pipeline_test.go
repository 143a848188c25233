package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubEnqueuer struct {
	generate    int
	checkStatus int
	err         error
}

func (s *stubEnqueuer) EnqueueGenerate() error {
	s.generate++
	return s.err
}

func (s *stubEnqueuer) EnqueueCheckStatus() error {
	s.checkStatus++
	return s.err
}

func TestPipelineRun(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		enqueueErr   error
		wantStatus   int
		wantGenerate int
		wantCheck    int
	}{
		{"generate", `{"action":"generate"}`, nil, http.StatusAccepted, 1, 0},
		{"check_status", `{"action":"check_status"}`, nil, http.StatusAccepted, 0, 1},
		{"unknown action", `{"action":"reindex"}`, nil, http.StatusBadRequest, 0, 0},
		{"malformed body", `{`, nil, http.StatusBadRequest, 0, 0},
		{"enqueue failure", `{"action":"generate"}`, errors.New("redis down"), http.StatusInternalServerError, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubEnqueuer{err: tt.enqueueErr}
			h := NewPipelineHandler(q)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Run(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantGenerate, q.generate)
			assert.Equal(t, tt.wantCheck, q.checkStatus)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
