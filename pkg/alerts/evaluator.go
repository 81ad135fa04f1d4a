package alerts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// compare applies a rule's condition to a computed value against its
// threshold (spec.md §4.7 step 1).
func compare(value float64, cond models.AlertCondition, threshold float64) bool {
	switch cond {
	case models.AlertConditionGT:
		return value > threshold
	case models.AlertConditionLT:
		return value < threshold
	case models.AlertConditionGE:
		return value >= threshold
	case models.AlertConditionLE:
		return value <= threshold
	default:
		return false
	}
}

// dedupKey derives the stable identity of a (tenant,site,rule) firing
// occurrence (spec.md §4.7: "dedup_key = hash(tenant,site,code)").
func dedupKey(tenantID, siteID, code string) string {
	sum := sha256.Sum256([]byte(tenantID + "|" + siteID + "|" + code))
	return hex.EncodeToString(sum[:])
}

// Site scopes evaluation to one tenant/site pair.
type Site struct {
	TenantID string
	SiteID   string
}

// Evaluator runs the declarative alert rules against a metric source on a
// schedule, one pass per (tenant,site,rule) (spec.md §4.7).
type Evaluator struct {
	repo     *Repository
	silences *SilenceRepository
	metrics  MetricSource
	notifier Notifier
	logger   *slog.Logger
}

// NewEvaluator builds an Evaluator over its collaborators.
func NewEvaluator(repo *Repository, silences *SilenceRepository, metrics MetricSource, notifier Notifier) *Evaluator {
	return &Evaluator{repo: repo, silences: silences, metrics: metrics, notifier: notifier, logger: slog.Default()}
}

// Run evaluates every rule against every site once, and resolves any
// previously-firing alert whose rule no longer matches (spec.md §4.7 step
// 6). It never returns a single site's or rule's error to the caller;
// failures are logged and the pass continues, so one bad rule or one
// unreachable metric source does not block evaluation of the rest.
func (e *Evaluator) Run(ctx context.Context, sites []Site, rules []models.AlertRule) {
	for _, site := range sites {
		matched := make(map[string]bool, len(rules))
		for _, rule := range rules {
			key := dedupKey(site.TenantID, site.SiteID, rule.Code)
			fired, err := e.evaluateRule(ctx, site, rule, key)
			if err != nil {
				e.logger.Error("alert rule evaluation failed", "tenant_id", site.TenantID, "site_id", site.SiteID,
					"alert_code", rule.Code, "error", err)
				continue
			}
			if fired {
				matched[key] = true
			}
		}
		if err := e.resolveStale(ctx, site, matched); err != nil {
			e.logger.Error("alert resolve sweep failed", "tenant_id", site.TenantID, "site_id", site.SiteID, "error", err)
		}
	}
}

// evaluateRule runs one rule against one site and reports whether it is
// currently firing.
func (e *Evaluator) evaluateRule(ctx context.Context, site Site, rule models.AlertRule, key string) (bool, error) {
	release, acquired, err := e.repo.TryAcquireLease(ctx, site.TenantID, site.SiteID, rule.Code)
	if err != nil {
		return false, err
	}
	if !acquired {
		// Another instance already owns this rule's evaluation this round
		// (spec.md §5: single-instance-per-(tenant,site,rule) lease).
		return false, nil
	}
	defer release()

	value, err := e.metrics.Evaluate(ctx, site.TenantID, site.SiteID, rule)
	if err != nil {
		return false, err
	}
	if !compare(value, rule.Condition, rule.Threshold) {
		return false, nil
	}

	now := time.Now().UTC()
	evalContext := map[string]any{"current_value": value, "threshold": rule.Threshold, "unit": rule.Unit}

	_, err = e.repo.GetFiring(ctx, site.TenantID, site.SiteID, key)
	switch {
	case err == nil:
		if err := e.repo.UpdateSeen(ctx, site.TenantID, site.SiteID, key, now, evalContext); err != nil {
			return true, err
		}
		return true, nil
	case isNotFound(err):
		event := &models.AlertEvent{
			TenantID: site.TenantID, SiteID: site.SiteID, DedupKey: key, AlertCode: rule.Code,
			Severity: rule.Severity, Status: models.AlertStatusFiring,
			FirstSeenAt: now, LastSeenAt: now, Context: evalContext,
		}
		if err := e.repo.Insert(ctx, event); err != nil {
			return true, err
		}
		return true, e.notifyIfNeeded(ctx, site, event)
	default:
		return false, err
	}
}

// notifyIfNeeded sends a webhook for a newly-firing high/critical alert
// unless an active silence covers it (spec.md §4.7 step 4/5).
func (e *Evaluator) notifyIfNeeded(ctx context.Context, site Site, event *models.AlertEvent) error {
	if event.Severity != models.AlertSeverityHigh && event.Severity != models.AlertSeverityCritical {
		return nil
	}

	silenced, err := e.isSilenced(ctx, site, event)
	if err != nil {
		return err
	}
	if silenced {
		return nil
	}

	if err := e.notifier.Notify(ctx, event); err != nil {
		return err
	}
	return e.repo.MarkWebhookSent(ctx, event.ID, time.Now().UTC())
}

func (e *Evaluator) isSilenced(ctx context.Context, site Site, event *models.AlertEvent) (bool, error) {
	now := time.Now().UTC()
	active, err := e.silences.ActiveForTenant(ctx, site.TenantID, now)
	if err != nil {
		return false, err
	}
	for _, silence := range active {
		if silence.Matcher.Matches(event.AlertCode, event.Severity, event.SiteID) {
			return true, nil
		}
	}
	return false, nil
}

// resolveStale transitions every firing alert not in matched to resolved
// (spec.md §4.7 step 6: a rule that no longer matches resolves).
func (e *Evaluator) resolveStale(ctx context.Context, site Site, matched map[string]bool) error {
	firing, err := e.repo.ListFiring(ctx, site.TenantID, site.SiteID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, event := range firing {
		if matched[event.DedupKey] {
			continue
		}
		if err := e.repo.ResolveFiring(ctx, site.TenantID, site.SiteID, event.DedupKey, now); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Category == apperr.CategoryNotFound
}
