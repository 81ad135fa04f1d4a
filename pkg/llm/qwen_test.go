package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

func TestQwenProvider_Generate_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body openAICompatChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen-plus", body.Model)

		resp := openAICompatChatResponse{}
		resp.Choices = []struct {
			Message openAICompatChatMessage `json:"message"`
		}{{Message: openAICompatChatMessage{Role: "assistant", Content: "ok"}}}
		resp.Usage.PromptTokens = 7
		resp.Usage.CompletionTokens = 3
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewQwenProvider(srv.URL, "test-key", "")
	resp, err := p.Generate(t.Context(), Request{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 7, resp.Usage.InputTokens)
}

func TestQwenProvider_Generate_AuthErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewQwenProvider(srv.URL, "wrong-key", "")
	_, err := p.Generate(t.Context(), Request{System: "s", User: "u"})
	require.Error(t, err)
	assert.Equal(t, apperr.CategoryAuth, apperr.CategoryOf(err))
	assert.False(t, apperr.IsRetryable(err))
}

func TestQwenProvider_Generate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAICompatChatResponse{})
	}))
	defer srv.Close()

	p := NewQwenProvider(srv.URL, "test-key", "")
	_, err := p.Generate(t.Context(), Request{System: "s", User: "u"})
	require.Error(t, err)
}
