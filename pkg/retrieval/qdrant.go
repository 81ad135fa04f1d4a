package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Embedder turns a query string into the dense vector Qdrant searches on.
// The embedding model itself is out of scope (spec.md Non-goals: no
// vector-database implementation, only the query/upsert contract) — callers
// wire in whatever embedding client their deployment uses.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EvidenceByID resolves a point's payload back to the full Evidence row,
// satisfied by pkg/database.EvidenceRepository.
type EvidenceByID interface {
	GetByID(ctx context.Context, tenantID, siteID, id string) (*models.Evidence, error)
}

// QdrantStrategy ranks evidence by cosine similarity against an embedded
// query (spec.md §4.1 step 5). It only consumes Qdrant's query/upsert
// contract over its REST API — no Go client for Qdrant appears among the
// retrieved dependencies, so this speaks the REST contract directly, the
// same way pkg/llm's non-SDK-backed providers do.
type QdrantStrategy struct {
	baseURL    string
	collection string
	embedder   Embedder
	evidence   EvidenceByID
	client     *http.Client
}

// NewQdrantStrategy builds a Provider backed by a Qdrant collection.
func NewQdrantStrategy(baseURL, collection string, embedder Embedder, evidence EvidenceByID) *QdrantStrategy {
	return &QdrantStrategy{
		baseURL:    baseURL,
		collection: collection,
		embedder:   embedder,
		evidence:   evidence,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type qdrantSearchRequest struct {
	Vector      []float32     `json:"vector"`
	Limit       int           `json:"limit"`
	WithPayload bool          `json:"with_payload"`
	Filter      *qdrantFilter `json:"filter,omitempty"`
}

type qdrantFilter struct {
	Must []qdrantFieldMatch `json:"must"`
}

type qdrantFieldMatch struct {
	Key   string         `json:"key"`
	Match qdrantMatchAny `json:"match"`
}

type qdrantMatchAny struct {
	Any []string `json:"any"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"result"`
}

func (s *QdrantStrategy) Retrieve(ctx context.Context, tenantID, siteID, query string, domains []string, topK int, minScore float64) ([]models.Citation, error) {
	scored, err := s.scoredEvidence(ctx, tenantID, siteID, query, domains, topK)
	if err != nil {
		return nil, err
	}
	return toCitations(scored, topK, minScore), nil
}

func (s *QdrantStrategy) scoredEvidence(ctx context.Context, tenantID, siteID, query string, domains []string, topK int) ([]scoredEvidence, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryDependency, "embed retrieval query", err)
	}

	reqBody := qdrantSearchRequest{Vector: vector, Limit: topK, WithPayload: false}
	if len(domains) > 0 {
		reqBody.Filter = &qdrantFilter{Must: []qdrantFieldMatch{{Key: "domains", Match: qdrantMatchAny{Any: domains}}}}
	}

	points, err := s.search(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredEvidence, 0, len(points))
	for _, pt := range points {
		ev, err := s.evidence.GetByID(ctx, tenantID, siteID, pt.ID)
		if err != nil {
			if apperr.CategoryOf(err) == apperr.CategoryNotFound {
				continue // vector index lagging the evidence table; skip stale points
			}
			return nil, err
		}
		scored = append(scored, scoredEvidence{evidence: ev, score: pt.Score})
	}
	return scored, nil
}

func (s *QdrantStrategy) search(ctx context.Context, body qdrantSearchRequest) ([]struct {
	ID    string
	Score float64
}, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "encode qdrant search request", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryInternal, "build qdrant search request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryDependency, "qdrant search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, apperr.New(apperr.CategoryDependency, fmt.Sprintf("qdrant search failed: %s", string(payload)))
	}

	var out qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.CategoryDependency, "decode qdrant search response", err)
	}

	result := make([]struct {
		ID    string
		Score float64
	}, len(out.Result))
	for i, r := range out.Result {
		result[i] = struct {
			ID    string
			Score float64
		}{ID: r.ID, Score: r.Score}
	}
	return result, nil
}
