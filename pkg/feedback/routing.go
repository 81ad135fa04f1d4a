package feedback

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// DefaultSLAHours applies when no routing rule matches a submitted ticket.
const DefaultSLAHours = 48

// DefaultGroup applies when no routing rule matches a submitted ticket.
const DefaultGroup = "general"

// Router loads the JSON routing rules file from disk and re-reads it at
// most once per refresh interval (spec.md §4.6: "hot-reloaded, 5-min TTL"),
// so an operator can edit the rules file without restarting the process.
type Router struct {
	path    string
	refresh time.Duration

	defaultGroup    string
	defaultSLAHours int

	mu       sync.RWMutex
	rules    []models.RoutingRule
	loadedAt time.Time
}

// NewRouter builds a Router over a rules file path. The file is loaded
// lazily on first Match, not at construction time, so a missing file at
// startup does not prevent the process from starting. defaultGroup/
// defaultSLAHours apply when no rule matches or the file cannot be read;
// an empty defaultGroup or zero defaultSLAHours falls back to DefaultGroup/
// DefaultSLAHours, so callers that only care about rule matching (most
// tests) can omit them.
func NewRouter(path string, refresh time.Duration, defaultGroup string, defaultSLAHours int) *Router {
	if defaultGroup == "" {
		defaultGroup = DefaultGroup
	}
	if defaultSLAHours == 0 {
		defaultSLAHours = DefaultSLAHours
	}
	return &Router{path: path, refresh: refresh, defaultGroup: defaultGroup, defaultSLAHours: defaultSLAHours}
}

func (r *Router) rulesSnapshot() ([]models.RoutingRule, error) {
	r.mu.RLock()
	fresh := time.Since(r.loadedAt) < r.refresh && r.rules != nil
	rules := r.rules
	r.mu.RUnlock()
	if fresh {
		return rules, nil
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	var loaded []models.RoutingRule
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, err
	}
	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].Priority > loaded[j].Priority })

	r.mu.Lock()
	r.rules = loaded
	r.loadedAt = time.Now()
	r.mu.Unlock()
	return loaded, nil
}

// Match scans the rule set high-priority-first and returns the first rule
// whose conditions all match, falling back to DefaultGroup/DefaultSLAHours
// if nothing matches or the rules file cannot be read (spec.md §4.6: a
// routing outage degrades to the default bucket rather than blocking
// submission).
func (r *Router) Match(f *models.UserFeedback) models.RoutingResult {
	rules, err := r.rulesSnapshot()
	if err != nil {
		return models.RoutingResult{Group: r.defaultGroup, SLAHours: r.defaultSLAHours}
	}

	for _, rule := range rules {
		if ruleMatches(rule.Conditions, f) {
			return models.RoutingResult{
				Assignee:      rule.Action.Assignee,
				Group:         rule.Action.Group,
				SLAHours:      rule.Action.SLAHours,
				MatchedRuleID: rule.ID,
			}
		}
	}
	return models.RoutingResult{Group: r.defaultGroup, SLAHours: r.defaultSLAHours}
}

func ruleMatches(c models.RoutingRuleCondition, f *models.UserFeedback) bool {
	if c.Severity != "" && c.Severity != f.Severity {
		return false
	}
	if c.Type != "" && c.Type != f.Type {
		return false
	}
	if c.SiteID != "" && c.SiteID != f.SiteID {
		return false
	}
	if c.NPCID != "" && c.NPCID != f.NPCID {
		return false
	}
	return true
}
