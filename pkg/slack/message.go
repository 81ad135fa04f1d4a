package slack

import (
	"fmt"
	"strings"

	goslack "github.com/slack-go/slack"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

const maxBlockTextLength = 2900

var severityEmoji = map[models.AlertSeverity]string{
	models.AlertSeverityLow:      ":information_source:",
	models.AlertSeverityMedium:   ":warning:",
	models.AlertSeverityHigh:     ":rotating_light:",
	models.AlertSeverityCritical: ":fire:",
}

// BuildAlertMessage creates Block Kit blocks for a newly-firing alert event
// (spec.md §4.7 step 5).
func BuildAlertMessage(event *models.AlertEvent) []goslack.Block {
	emoji := severityEmoji[event.Severity]
	if emoji == "" {
		emoji = ":question:"
	}

	header := fmt.Sprintf("%s *%s* alert `%s` firing on tenant `%s` / site `%s`",
		emoji, strings.ToUpper(string(event.Severity)), event.AlertCode, event.TenantID, event.SiteID)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
	}

	if len(event.Context) > 0 {
		var b strings.Builder
		for k, v := range event.Context {
			fmt.Fprintf(&b, "*%s*: %v\n", k, v)
		}
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(b.String()), false, false),
			nil, nil,
		))
	}

	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
