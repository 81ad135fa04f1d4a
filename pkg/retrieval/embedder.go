package retrieval

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbedder implements Embedder against OpenAI's embeddings API. The
// embedding model is deliberately out of scope of the retrieval strategy
// contract (spec.md Non-goals: no vector-database implementation, only the
// query/upsert contract), so this is one concrete choice among whatever an
// operator's deployment wires in — grounded on pkg/llm.OpenAIProvider's
// client construction.
type OpenAIEmbedder struct {
	model  string
	client openai.Client
}

// NewOpenAIEmbedder builds an Embedder backed by OpenAI. apiKey comes from
// the configured provider secret, resolved by the caller from its env var.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		model:  model,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
