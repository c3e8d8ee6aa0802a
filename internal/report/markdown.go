package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ecomlens/ecomlens/internal/diagnose"
)

// Markdown renders a run's diagnoses as a markdown report, ordered by
// estimated revenue at risk.
func Markdown(result *diagnose.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Friction Diagnosis Report\n\n")
	fmt.Fprintf(&b, "Run `%s` - %s\n\n", result.RunID, result.CreatedAt.UTC().Format(time.RFC3339))
	if result.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`\n\n", result.Source)
	}

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Sessions analyzed | %d |\n", result.TotalSessions)
	fmt.Fprintf(&b, "| Events processed | %d |\n", result.TotalEvents)
	if result.DroppedEvents > 0 {
		fmt.Fprintf(&b, "| Events dropped | %d |\n", result.DroppedEvents)
	}
	fmt.Fprintf(&b, "| Patterns diagnosed | %d |\n", len(result.Diagnoses))
	if len(result.SkippedPatterns) > 0 {
		fmt.Fprintf(&b, "| Patterns skipped | %s |\n", strings.Join(result.SkippedPatterns, ", "))
	}
	fmt.Fprintf(&b, "\n")

	writeBaseline(&b, result)

	if len(result.Diagnoses) == 0 {
		fmt.Fprintf(&b, "## Diagnoses\n\nNo friction patterns were detected in this batch.\n")
		return b.String()
	}

	sorted := make([]diagnose.Diagnosis, len(result.Diagnoses))
	copy(sorted, result.Diagnoses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RevenueAtRisk > sorted[j].RevenueAtRisk
	})

	fmt.Fprintf(&b, "## Diagnoses\n\n")
	for i := range sorted {
		writeDiagnosis(&b, &sorted[i])
	}

	return b.String()
}

func writeBaseline(b *strings.Builder, result *diagnose.RunResult) {
	fmt.Fprintf(b, "## Financial Baseline\n\n")
	fmt.Fprintf(b, "| | |\n|---|---|\n")

	aovNote := ""
	if result.Baseline.AOVIsPlaceholder {
		aovNote = " (placeholder, no purchase data)"
	}
	fmt.Fprintf(b, "| Average order value | %.2f%s |\n", result.Baseline.AOV, aovNote)

	convNote := ""
	if result.Baseline.ConversionIsDefault {
		convNote = " (industry default, no purchase data)"
	}
	fmt.Fprintf(b, "| Conversion rate | %.4f%s |\n", result.Baseline.ConversionRate, convNote)
	fmt.Fprintf(b, "| Purchases in batch | %d |\n\n", result.Baseline.PurchaseCount)

	if result.Baseline.AOVIsPlaceholder || result.Baseline.ConversionIsDefault {
		fmt.Fprintf(b, "> Revenue figures below are directional estimates; provide real\n")
		fmt.Fprintf(b, "> order data or configure `aov`/`conversion_rate` for accuracy.\n\n")
	}
}

func writeDiagnosis(b *strings.Builder, d *diagnose.Diagnosis) {
	fmt.Fprintf(b, "### %s\n\n", d.Label)
	fmt.Fprintf(b, "**Severity:** %s · **Confidence:** %s (score %.1f) · **Stage:** %s\n\n",
		d.Severity, d.Tier, d.Score, d.Stage)
	fmt.Fprintf(b, "**Revenue at risk:** %.2f (up to %.2f recoverable)\n\n",
		d.RevenueAtRisk, d.MaxPotentialRevenue)

	if len(d.Drivers) > 0 {
		fmt.Fprintf(b, "#### Why shoppers hesitate\n\n")
		fmt.Fprintf(b, "| Driver | Sessions |\n|---|---|\n")
		for _, drv := range d.Drivers {
			fmt.Fprintf(b, "| %s | %d |\n", drv.Label, drv.Sessions)
		}
		fmt.Fprintf(b, "\n")
	}

	fmt.Fprintf(b, "#### Recommended interventions\n\n")
	writeBucket(b, "Primary", d.Recommendation.Primary.Name, d.Recommendation.Primary.Description,
		d.Recommendation.Primary.WhyItWorks, d.Recommendation.Primary.ExampleActions)
	writeBucket(b, "Secondary", d.Recommendation.Secondary.Name, d.Recommendation.Secondary.Description,
		d.Recommendation.Secondary.WhyItWorks, d.Recommendation.Secondary.ExampleActions)

	if len(d.ExampleSessions) > 0 {
		fmt.Fprintf(b, "#### Example sessions\n\n")
		for _, sid := range d.ExampleSessions {
			fmt.Fprintf(b, "- `%s`\n", sid)
		}
		fmt.Fprintf(b, "\n")
	}

	if len(d.Journey) > 0 {
		fmt.Fprintf(b, "#### Representative journey\n\n")
		for _, step := range d.Journey {
			line := step.EventName
			if step.ItemName != "" {
				line += " - " + step.ItemName
			} else if step.SearchTerm != "" {
				line += fmt.Sprintf(" - %q", step.SearchTerm)
			} else if step.PageLocation != "" {
				line += " - " + step.PageLocation
			}
			fmt.Fprintf(b, "%d. %s\n", step.Order, line)
		}
		fmt.Fprintf(b, "\n")
	}

	if len(d.Evidence) > 0 {
		fmt.Fprintf(b, "#### Evidence\n\n")
		fmt.Fprintf(b, "```json\n%s\n```\n\n", evidenceJSON(d.Evidence))
	}
}

func writeBucket(b *strings.Builder, role, name, description, why string, actions []string) {
	if name == "" {
		return
	}
	fmt.Fprintf(b, "**%s: %s**\n\n", role, name)
	if description != "" {
		fmt.Fprintf(b, "%s\n\n", description)
	}
	if why != "" {
		fmt.Fprintf(b, "*Why it works:* %s\n\n", why)
	}
	for _, action := range actions {
		fmt.Fprintf(b, "- %s\n", action)
	}
	if len(actions) > 0 {
		fmt.Fprintf(b, "\n")
	}
}

func evidenceJSON(evidence map[string]float64) string {
	data, err := json.MarshalIndent(evidence, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
