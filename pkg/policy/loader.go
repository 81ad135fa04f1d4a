package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// DefaultPolicyName is the policy name every tenant/site carries unless a
// deployment defines additional named policies. Release payloads validate
// policy_version against this name's version history.
const DefaultPolicyName = "evidence_gate"

// Loader resolves the active Evidence-Gate policy for a (tenant,site,name),
// keeping an in-memory snapshot refreshed on a TTL so the hot turn-pipeline
// path avoids a database round trip on every request.
type Loader struct {
	repo  *Repository
	cache *cache
}

// NewLoader builds a Loader with the given refresh interval.
func NewLoader(repo *Repository, refreshInterval time.Duration) *Loader {
	return &Loader{repo: repo, cache: newCache(refreshInterval)}
}

func cacheKey(tenantID, siteID, name string) string {
	return tenantID + ":" + siteID + ":" + name
}

// GetPolicy returns the active policy, serving from the TTL cache when
// fresh and falling through to the database on miss or expiry.
func (l *Loader) GetPolicy(ctx context.Context, tenantID, siteID, name string) (*models.Policy, error) {
	key := cacheKey(tenantID, siteID, name)
	if p, ok := l.cache.get(key); ok {
		return p, nil
	}

	p, err := l.repo.GetActive(ctx, tenantID, siteID, name)
	if err != nil {
		return nil, err
	}

	l.cache.set(key, p)
	return p, nil
}

// Invalidate drops the cached snapshot so the next GetPolicy call refetches
// immediately, used after CreateVersion/SetActiveVersion rather than waiting
// out the TTL.
func (l *Loader) Invalidate(tenantID, siteID, name string) {
	l.cache.invalidate(cacheKey(tenantID, siteID, name))
}

// CreateVersion creates a new policy version and invalidates the cache when
// it becomes active.
func (l *Loader) CreateVersion(ctx context.Context, tenantID, siteID, name, version string, content models.PolicyContent, setActive bool) (*models.Policy, error) {
	p, err := l.repo.CreateVersion(ctx, tenantID, siteID, name, version, content, setActive)
	if err != nil {
		return nil, err
	}
	if setActive {
		l.Invalidate(tenantID, siteID, name)
	}
	return p, nil
}

// Rollback activates an existing version (used as policy.rollback) and
// invalidates the cache.
func (l *Loader) Rollback(ctx context.Context, tenantID, siteID, name, version string) (*models.Policy, error) {
	p, err := l.repo.SetActiveVersion(ctx, tenantID, siteID, name, version)
	if err != nil {
		return nil, err
	}
	l.Invalidate(tenantID, siteID, name)
	return p, nil
}

// seedFile mirrors the JSON seed file's top-level shape: a version,
// description, and the policy content itself.
type seedFile struct {
	Version     string              `json:"version"`
	Description string              `json:"description"`
	models.PolicyContent
}

// SeedFromFile imports the policy content at path as the initial version of
// name, but only when (tenant,site,name) has zero prior versions — matching
// the guard in the original PolicyService.seed_from_file. Returns nil, nil
// (not an error) when a seed is skipped because data already exists or the
// file is absent.
func (l *Loader) SeedFromFile(ctx context.Context, tenantID, siteID, name, path string) (*models.Policy, error) {
	existing, err := l.repo.ListVersions(ctx, tenantID, siteID, name)
	if err != nil {
		return nil, fmt.Errorf("check existing policy versions: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy seed file %s: %w", path, err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse policy seed file %s: %w", path, err)
	}

	version := seed.Version
	if version == "" {
		version = "v1.0"
	}

	return l.CreateVersion(ctx, tenantID, siteID, name, version, seed.PolicyContent, true)
}

// ExportToFile dumps the currently active policy's content to a timestamped
// JSON file under dir, returning the written path. stamp is supplied by the
// caller (YYYYMMDD_HHMMSS) since this package never calls time.Now()-derived
// formatting internally beyond what the caller already has from the trigger
// event.
func (l *Loader) ExportToFile(ctx context.Context, tenantID, siteID, name, dir, stamp string) (string, error) {
	active, err := l.repo.GetActive(ctx, tenantID, siteID, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", dir, err)
	}

	raw, err := json.MarshalIndent(active.Content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal active policy content: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_export_%s.json", name, stamp))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write export file %s: %w", path, err)
	}

	return path, nil
}
