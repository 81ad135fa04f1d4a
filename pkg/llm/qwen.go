package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// QwenProvider calls Alibaba DashScope's OpenAI-compatible chat completions
// endpoint. No Go SDK for DashScope exists among the retrieved dependencies,
// so this adapter speaks the REST contract directly over net/http, the same
// way OllamaProvider does for a non-SDK-backed provider.
type QwenProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewQwenProvider builds a Provider backed by DashScope. baseURL defaults to
// the public compatible-mode endpoint when empty.
func NewQwenProvider(baseURL, apiKey, model string) *QwenProvider {
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if model == "" {
		model = "qwen-plus"
	}
	return &QwenProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *QwenProvider) Name() string { return "qwen" }

type openAICompatChatRequest struct {
	Model       string                    `json:"model"`
	Messages    []openAICompatChatMessage `json:"messages"`
	Temperature float64                   `json:"temperature,omitempty"`
	MaxTokens   int                       `json:"max_tokens,omitempty"`
}

type openAICompatChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAICompatChatResponse struct {
	Choices []struct {
		Message openAICompatChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *QwenProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	body := openAICompatChatRequest{
		Model: p.model,
		Messages: []openAICompatChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	return doOpenAICompatRequest(ctx, p.client, p.baseURL+"/chat/completions", p.apiKey, body)
}

func doOpenAICompatRequest(ctx context.Context, client *http.Client, url, apiKey string, body openAICompatChatRequest) (*Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "encode chat completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "build chat completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, classifyHTTPStatus(resp.StatusCode, fmt.Sprintf("chat completion request failed: %s", string(payload)))
	}

	var out openAICompatChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.CategoryDependency, "decode chat completion response", err)
	}
	if len(out.Choices) == 0 {
		return nil, apperr.New(apperr.CategoryDependency, "chat completion response had no choices")
	}

	return &Response{
		Content: out.Choices[0].Message.Content,
		Usage:   Usage{InputTokens: out.Usage.PromptTokens, OutputTokens: out.Usage.CompletionTokens},
	}, nil
}
