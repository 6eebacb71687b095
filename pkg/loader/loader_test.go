package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_LoadCheckpointGuessConfig(t *testing.T) {
	var (
		mu       sync.Mutex
		apiCalls int
		got      loadRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		apiCalls++
		mu.Unlock()

		assert.Equal(t, "/load_checkpoint", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"outputs": ["model:1", "clip:1", "vae:1", null]}`)
	}))
	defer server.Close()

	l := New(Config{URL: server.URL + "/", Timeout: 5 * time.Second})

	outputs, err := l.LoadCheckpointGuessConfig(context.Background(), "/models/checkpoints/sdxl/a.safetensors", LoadOptions{
		OutputVAE:          true,
		OutputCLIP:         true,
		EmbeddingDirectory: []string{"/models/embeddings"},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"model:1", "clip:1", "vae:1", nil}, outputs)
	assert.Equal(t, 1, apiCalls)
	assert.Equal(t, "/models/checkpoints/sdxl/a.safetensors", got.CkptPath)
	assert.True(t, got.OutputVAE)
	assert.True(t, got.OutputCLIP)
	assert.Equal(t, []string{"/models/embeddings"}, got.EmbeddingDirectory)
}

func TestRemote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{
			name: "error_field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"error": "could not detect model type"}`)
			},
			message: "could not detect model type",
		},
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such file", http.StatusNotFound)
			},
			message: "no such file",
		},
		{
			name: "malformed_json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"outputs": [`)
			},
			message: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			l := NewRemote(Config{URL: server.URL, Timeout: 5 * time.Second})
			_, err := l.LoadCheckpointGuessConfig(context.Background(), "a.ckpt", LoadOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestNew_Unconfigured(t *testing.T) {
	l := New(Config{})
	assert.IsType(t, Unconfigured{}, l)

	_, err := l.LoadCheckpointGuessConfig(context.Background(), "a.ckpt", LoadOptions{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
