package retrieval

import (
	"context"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
	"github.com/codeready-toolchain/npcorchestrator/pkg/tools"
)

// Adapter exposes a Provider as pkg/tools.EvidenceRetriever, translating the
// retrieve_evidence tool's input struct into the Provider's positional
// arguments.
type Adapter struct {
	provider Provider
}

// NewAdapter wraps provider for use as the tool server's EvidenceRetriever.
func NewAdapter(provider Provider) *Adapter {
	return &Adapter{provider: provider}
}

func (a *Adapter) Retrieve(ctx context.Context, tenantID, siteID string, in tools.RetrieveEvidenceInput) ([]models.Citation, error) {
	return a.provider.Retrieve(ctx, tenantID, siteID, in.Query, in.Domains, in.TopK, in.MinScore)
}
