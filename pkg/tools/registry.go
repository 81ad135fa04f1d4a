package tools

import (
	"sync"
)

// Handler executes one tool call. in/out are always pointers to the typed
// structs declared in types.go for that tool name.
type Handler func(ctx *CallContext, in any) (any, error)

// Definition binds a tool's metadata to its handler.
type Definition struct {
	Metadata
	Handler Handler
}

// Registry holds every tool this server exposes, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
}

// NewRegistry builds an empty registry. Use NewBuiltinRegistry to get one
// pre-populated with the seven built-in tools.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition)}
}

// Register adds or replaces a tool definition.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = def
}

// Get looks up a tool definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// ListAll returns every registered definition, unordered.
func (r *Registry) ListAll() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.tools))
	for _, def := range r.tools {
		out = append(out, def)
	}
	return out
}

// ListMetadata returns the metadata of every registered tool, optionally
// filtered to a category and/or to ai_callable tools only. Either filter is
// skipped when its argument is the zero value.
func (r *Registry) ListMetadata(category string, aiCallableOnly bool) []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.tools))
	for _, def := range r.tools {
		if category != "" && def.Category != category {
			continue
		}
		if aiCallableOnly && !def.AICallable {
			continue
		}
		out = append(out, def.Metadata)
	}
	return out
}

// NewBuiltinRegistry wires the seven tools every deployment carries, bound
// to the given storage and retrieval ports.
func NewBuiltinRegistry(stores Stores) *Registry {
	r := NewRegistry()
	h := &handlers{stores: stores}

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "get_npc_profile",
			Version:     "1.0.0",
			Description: "Fetch an NPC's persona configuration: identity, personality, and knowledge domains.",
			Category:    "npc",
			InputSchema: objectSchema(map[string]any{
				"npc_id": stringProp("the NPC to fetch"),
			}, "npc_id"),
			OutputSchema: objectSchema(map[string]any{
				"profile": objectSchema(map[string]any{}),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.getNPCProfile,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "get_prompt_active",
			Version:     "1.0.0",
			Description: "Fetch the NPC's currently active prompt configuration.",
			Category:    "prompt",
			InputSchema: objectSchema(map[string]any{
				"npc_id": stringProp("the NPC to fetch"),
			}, "npc_id"),
			OutputSchema: objectSchema(map[string]any{
				"prompt": objectSchema(map[string]any{}),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.getPromptActive,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "get_site_map",
			Version:     "1.0.0",
			Description: "Fetch the site map: points of interest and routes.",
			Category:    "site",
			InputSchema: objectSchema(map[string]any{}),
			OutputSchema: objectSchema(map[string]any{
				"entries": arrayProp(objectSchema(map[string]any{}), "points of interest and routes"),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.getSiteMap,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "search_content",
			Version:     "1.0.0",
			Description: "Search editorial content by keyword, type, and tags.",
			Category:    "content",
			InputSchema: objectSchema(map[string]any{
				"query":        stringProp("search keywords"),
				"content_type": stringProp("optional content type filter"),
				"tags":         arrayProp(stringProp(""), "optional tag filter"),
				"limit":        intProp("max results"),
			}, "query"),
			OutputSchema: objectSchema(map[string]any{
				"items": arrayProp(objectSchema(map[string]any{}), "matching content"),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.searchContent,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "retrieve_evidence",
			Version:     "1.0.0",
			Description: "Retrieve citable evidence for AI answers, optionally filtered by knowledge domain.",
			Category:    "evidence",
			InputSchema: objectSchema(map[string]any{
				"query":     stringProp("the question to find evidence for"),
				"domains":   arrayProp(stringProp(""), "optional domain filter"),
				"top_k":     intProp("max citations to return"),
				"min_score": numberProp("minimum relevance score"),
			}, "query", "top_k"),
			OutputSchema: objectSchema(map[string]any{
				"citations": arrayProp(objectSchema(map[string]any{}), "ranked citations"),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.retrieveEvidence,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "create_draft_content",
			Version:     "1.0.0",
			Description: "Create draft content and return its content_id.",
			Category:    "content",
			InputSchema: objectSchema(map[string]any{
				"title":        stringProp("draft title"),
				"body":         stringProp("draft body"),
				"content_type": stringProp("content type"),
				"tags":         arrayProp(stringProp(""), "optional tags"),
			}, "title", "body", "content_type"),
			OutputSchema: objectSchema(map[string]any{
				"content_id": stringProp("id of the created draft"),
			}),
			RequiresAuth: true,
			AICallable:   false,
		},
		Handler: h.createDraftContent,
	})

	r.Register(&Definition{
		Metadata: Metadata{
			Name:        "log_user_event",
			Version:     "1.0.0",
			Description: "Record a user event to the analytics sink.",
			Category:    "analytics",
			InputSchema: objectSchema(map[string]any{
				"event_type": stringProp("event type name"),
				"payload":    objectSchema(map[string]any{}),
			}, "event_type"),
			OutputSchema: objectSchema(map[string]any{
				"recorded": boolProp("whether the event was recorded"),
			}),
			RequiresAuth: true,
			AICallable:   true,
		},
		Handler: h.logUserEvent,
	})

	return r
}
