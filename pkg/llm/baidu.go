package llm

import (
	"context"
	"net/http"
	"time"
)

// BaiduProvider calls Baidu Qianfan's OpenAI-compatible chat completions
// endpoint. Like QwenProvider, no Go SDK for Qianfan exists among the
// retrieved dependencies, so this speaks the same REST contract.
type BaiduProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewBaiduProvider builds a Provider backed by Qianfan. baseURL defaults to
// the public compatible-mode endpoint when empty.
func NewBaiduProvider(baseURL, apiKey, model string) *BaiduProvider {
	if baseURL == "" {
		baseURL = "https://qianfan.baidubce.com/v2"
	}
	if model == "" {
		model = "ernie-4.0-8k"
	}
	return &BaiduProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *BaiduProvider) Name() string { return "baidu" }

func (p *BaiduProvider) Generate(ctx context.Context, req Request) (*Response, error) {
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
