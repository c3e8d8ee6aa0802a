package features

import (
	"math"
	"sort"
	"strings"

	"github.com/ecomlens/ecomlens/internal/events"
)

const pogoWindowMillis = 60_000

// Event-name aliases, normalized to lower case before matching. Tracking
// setups are inconsistent about naming, so each logical action accepts
// the variants seen in the wild.
var (
	productViewNames = map[string]bool{
		"view_item":    true,
		"product_view": true,
		"view_product": true,
		"item_view":    true,
	}
	cartAddNames = map[string]bool{
		"add_to_cart": true,
		"cart_add":    true,
	}
	searchNames = map[string]bool{
		"search":              true,
		"view_search_results": true,
	}
	checkoutBeginNames = map[string]bool{
		"begin_checkout": true,
		"checkout_begin": true,
		"start_checkout": true,
	}
	purchaseNames = map[string]bool{
		"purchase":        true,
		"order_completed": true,
		"transaction":     true,
	}
)

// Reassurance-page keyword tables, matched case-insensitively against
// both the event name and the page location. The categories are
// independent: one event may count toward several.
var (
	policyKeywords     = []string{"refund", "return", "shipping", "terms", "privacy", "guarantee"}
	reviewKeywords     = []string{"review"}
	fitGuideKeywords   = []string{"size-guide", "fit-guide", "sizing"}
	brandTrustKeywords = []string{"about", "story", "mission", "security", "certified"}
)

// timedEvent pairs an event with its normalized timestamp. Only events
// with a parseable timestamp participate in ordering-sensitive metrics.
type timedEvent struct {
	ev     events.RawEvent
	millis int64
}

// Extract builds the feature vector for one session. The boolean is
// false when the session has no events; a vector is never constructed
// for an empty session.
func Extract(sessionID string, evs []events.RawEvent) (Vector, bool) {
	if len(evs) == 0 {
		return Vector{}, false
	}

	timed := make([]timedEvent, 0, len(evs))
	for _, ev := range evs {
		if ms, ok := ev.Millis(); ok {
			timed = append(timed, timedEvent{ev: ev, millis: ms})
		}
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].millis < timed[j].millis })

	m := map[string]float64{}

	var productViews, cartAdds, searches int
	var policyViews, reviewViews, fitGuideViews, brandTrustViews int
	reachedCheckout := false
	completedPurchase := false
	seenItems := map[string]bool{}
	categoryCounts := map[string]int{}
	var prices []float64

	for _, ev := range evs {
		name := strings.ToLower(ev.EventName)
		location := strings.ToLower(ev.PageLocation)

		switch {
		case productViewNames[name]:
			productViews++
			if id := itemIdentity(ev); id != "" {
				seenItems[id] = true
			}
			if cat := strings.ToLower(strings.TrimSpace(ev.ItemCategory)); cat != "" {
				categoryCounts[cat]++
			}
			if ev.Price > 0 {
				prices = append(prices, ev.Price)
			}
		case cartAddNames[name]:
			cartAdds++
		case searchNames[name]:
			searches++
		case purchaseNames[name]:
			completedPurchase = true
		}

		if checkoutBeginNames[name] || strings.Contains(location, "/checkout") {
			reachedCheckout = true
		}

		haystack := name + " " + location
		if containsAny(haystack, policyKeywords) {
			policyViews++
		}
		if containsAny(haystack, reviewKeywords) {
			reviewViews++
		}
		if containsAny(haystack, fitGuideKeywords) {
			fitGuideViews++
		}
		if containsAny(haystack, brandTrustKeywords) {
			brandTrustViews++
		}
	}

	m[MetricProductsViewed] = float64(productViews)
	m[MetricUniqueProductsViewed] = float64(len(seenItems))
	m[MetricCartAdds] = float64(cartAdds)
	m[MetricSearches] = float64(searches)
	m[MetricPolicyViews] = float64(policyViews)
	m[MetricReviewViews] = float64(reviewViews)
	m[MetricFitGuideViews] = float64(fitGuideViews)
	m[MetricBrandTrustViews] = float64(brandTrustViews)
	m[MetricReassuranceTouches] = float64(policyViews + reviewViews + fitGuideViews + brandTrustViews)
	m[MetricReachedCheckout] = boolMetric(reachedCheckout)
	m[MetricCompletedPurchase] = boolMetric(completedPurchase)
	m[MetricHasIntent] = boolMetric(cartAdds > 0 || reachedCheckout)
	m[MetricUniqueCategories] = float64(len(categoryCounts))
	m[MetricReviewSentimentNegative] = 0

	ratio := 0.0
	if productViews > 0 {
		ratio = math.Min(float64(cartAdds)/float64(productViews), 1)
	}
	m[MetricViewToCartRatio] = ratio
	m[MetricSameCategoryRatio] = sameCategoryRatio(categoryCounts)
	m[MetricPriceSpreadCV] = coefficientOfVariation(prices)

	m[MetricSessionDurationMin] = sessionDurationMin(timed)
	m[MetricTimeOnCartCheckout] = cartCheckoutSpanMin(timed)

	views := productViewSequence(timed)
	m[MetricPogoTransitions] = float64(pogoTransitions(views))
	m[MetricCategorySwitches] = float64(categorySwitches(views))
	m[MetricReturnViews] = float64(returnViews(views))

	return Vector{SessionID: sessionID, Metrics: m}, true
}

// ExtractBatch groups a raw batch by session and extracts a vector per
// session that has at least one event.
func ExtractBatch(batch []events.RawEvent) map[string]Vector {
	vectors := make(map[string]Vector)
	for sessionID, evs := range events.GroupBySession(batch) {
		if v, ok := Extract(sessionID, evs); ok {
			vectors[sessionID] = v
		}
	}
	return vectors
}

func itemIdentity(ev events.RawEvent) string {
	if ev.ItemID != "" {
		return ev.ItemID
	}
	return ev.ItemName
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// sameCategoryRatio is the share of categorized product views landing
// on the single most-viewed category.
func sameCategoryRatio(counts map[string]int) float64 {
	total, max := 0, 0
	for _, c := range counts {
		total += c
		if c > max {
			max = c
		}
	}
	if total == 0 {
		return 0
	}
	return float64(max) / float64(total)
}

func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq/float64(len(values))) / mean
}

func sessionDurationMin(timed []timedEvent) float64 {
	if len(timed) < 2 {
		return 0
	}
	return float64(timed[len(timed)-1].millis-timed[0].millis) / 60_000
}

// cartCheckoutSpanMin measures the span between the first and last
// event on a cart or checkout page, in minutes.
func cartCheckoutSpanMin(timed []timedEvent) float64 {
	var first, last int64 = -1, -1
	for _, te := range timed {
		loc := strings.ToLower(te.ev.PageLocation)
		if !strings.Contains(loc, "/cart") && !strings.Contains(loc, "/checkout") {
			continue
		}
		if first < 0 {
			first = te.millis
		}
		last = te.millis
	}
	if first < 0 || first == last {
		return 0
	}
	return float64(last-first) / 60_000
}

func productViewSequence(timed []timedEvent) []timedEvent {
	var views []timedEvent
	for _, te := range timed {
		if productViewNames[strings.ToLower(te.ev.EventName)] {
			views = append(views, te)
		}
	}
	return views
}

// pogoTransitions counts rapid back-and-forth product hops: adjacent
// views of different items no more than a minute apart.
func pogoTransitions(views []timedEvent) int {
	count := 0
	for i := 1; i < len(views); i++ {
		a, b := views[i-1], views[i]
		idA, idB := itemIdentity(a.ev), itemIdentity(b.ev)
		if idA == "" || idB == "" || idA == idB {
			continue
		}
		if b.millis-a.millis <= pogoWindowMillis {
			count++
		}
	}
	return count
}

func categorySwitches(views []timedEvent) int {
	count := 0
	for i := 1; i < len(views); i++ {
		catA := strings.ToLower(strings.TrimSpace(views[i-1].ev.ItemCategory))
		catB := strings.ToLower(strings.TrimSpace(views[i].ev.ItemCategory))
		if catA != "" && catB != "" && catA != catB {
			count++
		}
	}
	return count
}

// returnViews counts product views of an item already viewed earlier in
// the session.
func returnViews(views []timedEvent) int {
	seen := map[string]bool{}
	count := 0
	for _, te := range views {
		id := itemIdentity(te.ev)
		if id == "" {
			continue
		}
		if seen[id] {
			count++
		}
		seen[id] = true
	}
	return count
}
