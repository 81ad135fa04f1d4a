package tools

import "context"

// Stores bundles the ports a builtin handler set is wired against. Each
// field is satisfied by a pkg/database repository or pkg/retrieval client;
// pkg/tools never imports either directly.
type Stores struct {
	NPC      NPCStore
	SiteMap  SiteMapStore
	Content  ContentStore
	Evidence EvidenceRetriever
	Events   EventLogger
}

type handlers struct {
	stores Stores
}

func (h *handlers) getNPCProfile(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*GetNPCProfileInput)
	profile, err := h.stores.NPC.GetActiveProfile(context.Background(), cc.TenantID, cc.SiteID, in.NPCID)
	if err != nil {
		return nil, err
	}
	return &GetNPCProfileOutput{Profile: profile}, nil
}

func (h *handlers) getPromptActive(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*GetPromptActiveInput)
	prompt, err := h.stores.NPC.GetActivePrompt(context.Background(), cc.TenantID, cc.SiteID, in.NPCID)
	if err != nil {
		return nil, err
	}
	return &GetPromptActiveOutput{Prompt: prompt}, nil
}

func (h *handlers) getSiteMap(cc *CallContext, _ any) (any, error) {
	entries, err := h.stores.SiteMap.GetSiteMap(context.Background(), cc.TenantID, cc.SiteID)
	if err != nil {
		return nil, err
	}
	return &GetSiteMapOutput{Entries: entries}, nil
}

func (h *handlers) searchContent(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*SearchContentInput)
	items, err := h.stores.Content.Search(context.Background(), cc.TenantID, cc.SiteID, *in)
	if err != nil {
		return nil, err
	}
	return &SearchContentOutput{Items: items}, nil
}

func (h *handlers) retrieveEvidence(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*RetrieveEvidenceInput)
	citations, err := h.stores.Evidence.Retrieve(context.Background(), cc.TenantID, cc.SiteID, *in)
	if err != nil {
		return nil, err
	}
	return &RetrieveEvidenceOutput{Citations: citations}, nil
}

func (h *handlers) createDraftContent(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*CreateDraftContentInput)
	id, err := h.stores.Content.CreateDraft(context.Background(), cc.TenantID, cc.SiteID, *in)
	if err != nil {
		return nil, err
	}
	return &CreateDraftContentOutput{ContentID: id}, nil
}

func (h *handlers) logUserEvent(cc *CallContext, rawIn any) (any, error) {
	in := rawIn.(*LogUserEventInput)
	if err := h.stores.Events.LogEvent(context.Background(), cc.TenantID, cc.SiteID, *in); err != nil {
		return nil, err
	}
	return &LogUserEventOutput{Recorded: true}, nil
}
