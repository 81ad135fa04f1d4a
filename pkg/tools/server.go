package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// Server implements the tools/list and tools/call RPC contract over a
// Registry. It owns input validation and per-call audit production; it
// never touches storage directly, only through the Definition handlers.
type Server struct {
	registry *Registry
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer builds a Server over an already-populated registry.
func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}
}

// ListResult is the tools/list response body.
type ListResult struct {
	Tools []Metadata `json:"tools"`
}

// List returns every tool's metadata, optionally filtered by category
// and/or restricted to ai_callable tools.
func (s *Server) List(category string, aiCallableOnly bool) ListResult {
	return ListResult{Tools: s.registry.ListMetadata(category, aiCallableOnly)}
}

// CallRequest is the tools/call request body. Input is decoded into the
// tool's typed input struct before the handler runs.
type CallRequest struct {
	ToolName string          `json:"tool_name"`
	Input    json.RawMessage `json:"input"`
	Context  CallContext     `json:"context"`
}

// CallResult is the tools/call response body.
type CallResult struct {
	Output any       `json:"output"`
	Audit  CallAudit `json:"audit"`
}

// newInput allocates the zero-value typed input struct for a tool name, so
// json.Unmarshal has a concrete destination instead of a bare map.
func newInput(toolName string) (any, error) {
	switch toolName {
	case "get_npc_profile":
		return &GetNPCProfileInput{}, nil
	case "get_prompt_active":
		return &GetPromptActiveInput{}, nil
	case "get_site_map":
		return &GetSiteMapInput{}, nil
	case "search_content":
		return &SearchContentInput{}, nil
	case "retrieve_evidence":
		return &RetrieveEvidenceInput{}, nil
	case "create_draft_content":
		return &CreateDraftContentInput{}, nil
	case "log_user_event":
		return &LogUserEventInput{}, nil
	default:
		return nil, apperr.New(apperr.CategoryNotFound, fmt.Sprintf("unknown tool %q", toolName))
	}
}

// Call validates req, dispatches to the named tool's handler, and returns
// the typed output alongside an audit summary. Every failure is returned as
// a classified *apperr.Error so callers can map it to a transport status
// without re-deriving the category.
func (s *Server) Call(ctx context.Context, req CallRequest) (*CallResult, error) {
	start := time.Now()

	if req.Context.TenantID == "" || req.Context.SiteID == "" || req.Context.TraceID == "" {
		return nil, apperr.New(apperr.CategoryValidation, "tool call context requires tenant_id, site_id, and trace_id")
	}

	def, ok := s.registry.Get(req.ToolName)
	if !ok {
		return nil, apperr.NotFound("tool", req.ToolName)
	}
	if def.RequiresAuth && req.Context.UserID == "" {
		return nil, apperr.New(apperr.CategoryAuth, "tool requires an authenticated caller")
	}

	in, err := newInput(req.ToolName)
	if err != nil {
		return nil, err
	}
	if len(req.Input) > 0 {
		if err := json.Unmarshal(req.Input, in); err != nil {
			return nil, apperr.Wrap(apperr.CategoryValidation, "malformed tool input", err)
		}
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Wrap(apperr.CategoryValidation, "tool input failed validation", err)
	}

	audit := CallAudit{
		TraceID:            req.Context.TraceID,
		ToolName:           req.ToolName,
		RequestPayloadHash: hashPayload(req.Input),
	}

	out, err := def.Handler(&req.Context, in)
	audit.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		audit.Status = "error"
		s.logger.Error("tool call failed",
			"tool", req.ToolName, "trace_id", req.Context.TraceID, "tenant_id", req.Context.TenantID,
			"site_id", req.Context.SiteID, "error", err, "latency_ms", audit.LatencyMs)
		return &CallResult{Audit: audit}, err
	}

	audit.Status = "ok"
	s.logger.Info("tool call succeeded",
		"tool", req.ToolName, "trace_id", req.Context.TraceID, "tenant_id", req.Context.TenantID,
		"site_id", req.Context.SiteID, "latency_ms", audit.LatencyMs)

	return &CallResult{Output: out, Audit: audit}, nil
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
