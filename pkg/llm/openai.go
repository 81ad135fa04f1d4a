package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// OpenAIProvider calls OpenAI's Chat Completions API.
type OpenAIProvider struct {
	model  string
	client openai.Client
}

// NewOpenAIProvider builds a Provider backed by OpenAI. apiKey comes from the
// configured provider secret, resolved by the caller from its env var.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		model:  model,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.New(apperr.CategoryDependency, "openai returned no choices")
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus(apiErr.StatusCode, apiErr.Error())
	}
	return classifyTransportErr(err)
}
