package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// LoadRules reads the declarative alert rule set from a YAML file (spec.md
// §4.7: "a declarative YAML rule set"). Unlike pkg/feedback's routing rules,
// the rule set is loaded once at process start, not hot-reloaded: the
// evaluator cron restarts on each scheduled invocation (cmd/alertscron), so
// there is no long-lived process for a file change to need to reach.
func LoadRules(path string) ([]models.AlertRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alert rules file: %w", err)
	}
	var rules []models.AlertRule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse alert rules file: %w", err)
	}
	return rules, nil
}
