package diagnose

import (
	"sort"
	"strings"

	"github.com/ecomlens/ecomlens/internal/events"
)

// maxJourneySteps caps the timeline length for presentation.
const maxJourneySteps = 50

var journeyEventNames = map[string]bool{
	"view_item":           true,
	"product_view":        true,
	"view_product":        true,
	"item_view":           true,
	"add_to_cart":         true,
	"cart_add":            true,
	"remove_from_cart":    true,
	"begin_checkout":      true,
	"checkout_begin":      true,
	"start_checkout":      true,
	"purchase":            true,
	"order_completed":     true,
	"transaction":         true,
	"page_view":           true,
	"search":              true,
	"view_search_results": true,
}

// BuildJourney extracts an ordered timeline of presentable events from
// one session. Events without a parseable timestamp are left out, since
// their position in the sequence is unknowable.
func BuildJourney(evs []events.RawEvent) []JourneyStep {
	type timedStep struct {
		step   JourneyStep
		millis int64
	}

	var steps []timedStep
	for _, ev := range evs {
		name := strings.ToLower(ev.EventName)
		if !journeyEventNames[name] && ev.PageLocation == "" {
			continue
		}
		ms, ok := ev.Millis()
		if !ok {
			continue
		}
		steps = append(steps, timedStep{
			millis: ms,
			step: JourneyStep{
				EventName:    ev.EventName,
				ItemName:     ev.ItemName,
				ItemCategory: ev.ItemCategory,
				PageLocation: ev.PageLocation,
				SearchTerm:   ev.SearchTerm,
				Millis:       ms,
			},
		})
	}

	sort.SliceStable(steps, func(i, j int) bool { return steps[i].millis < steps[j].millis })
	if len(steps) > maxJourneySteps {
		steps = steps[:maxJourneySteps]
	}

	journey := make([]JourneyStep, len(steps))
	for i, ts := range steps {
		ts.step.Order = i + 1
		journey[i] = ts.step
	}
	return journey
}
