// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *OpenAIBackend {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := openAIAPIURL
	openAIAPIURL = ts.URL
	t.Cleanup(func() { openAIAPIURL = orig })

	return NewOpenAIBackend(types.MCQConfig{APIKey: "sk-test", Model: "gpt-4o-mini", Timeout: 5 * time.Second})
}

func TestOpenAIComplete(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "describe the figure", req.Messages[1].Content)

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: `{"answer":"B"}`}}},
		})
	})

	got, err := backend.Complete(context.Background(), "be helpful", "describe the figure")
	require.NoError(t, err)
	assert.Equal(t, `{"answer":"B"}`, got)
}

func TestOpenAICompleteServerError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := backend.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	})

	_, err := backend.Complete(context.Background(), "sys", "user")
	assert.Error(t, err)
}

func TestNewOpenAIBackendWithoutKey(t *testing.T) {
	assert.Nil(t, NewOpenAIBackend(types.MCQConfig{}))
}
