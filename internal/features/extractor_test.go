package features

import (
	"math"
	"testing"

	"github.com/ecomlens/ecomlens/internal/events"
)

const baseMillis = int64(1735689600000)

func ev(name string, offsetSec int) events.RawEvent {
	return events.RawEvent{
		SessionID: "s1",
		EventName: name,
		Timestamp: float64(baseMillis + int64(offsetSec)*1000),
	}
}

func metric(t *testing.T, v Vector, name string) float64 {
	t.Helper()
	val, ok := v.Metric(name)
	if !ok {
		t.Fatalf("metric %s missing from vector", name)
	}
	return val
}

func TestExtractEmptySession(t *testing.T) {
	if _, ok := Extract("s1", nil); ok {
		t.Error("expected no vector for an empty session")
	}
}

func TestExtractCountsAndIntent(t *testing.T) {
	evs := []events.RawEvent{
		ev("view_item", 0),
		ev("product_view", 10),
		ev("search", 20),
		ev("add_to_cart", 30),
	}
	evs[0].ItemID = "sku-1"
	evs[1].ItemID = "sku-2"

	v, ok := Extract("s1", evs)
	if !ok {
		t.Fatal("Extract not ok")
	}

	if got := metric(t, v, MetricProductsViewed); got != 2 {
		t.Errorf("products_viewed = %v, want 2", got)
	}
	if got := metric(t, v, MetricUniqueProductsViewed); got != 2 {
		t.Errorf("unique_products_viewed = %v, want 2", got)
	}
	if got := metric(t, v, MetricSearches); got != 1 {
		t.Errorf("searches = %v, want 1", got)
	}
	if got := metric(t, v, MetricCartAdds); got != 1 {
		t.Errorf("cart_adds = %v, want 1", got)
	}
	if got := metric(t, v, MetricHasIntent); got != 1 {
		t.Errorf("has_intent = %v, want 1", got)
	}
	if got := metric(t, v, MetricViewToCartRatio); got != 0.5 {
		t.Errorf("view_to_cart_ratio = %v, want 0.5", got)
	}
}

func TestExtractCheckoutFromLocation(t *testing.T) {
	e := ev("page_view", 0)
	e.PageLocation = "https://shop.example/checkout/payment"

	v, _ := Extract("s1", []events.RawEvent{e})
	if got := metric(t, v, MetricReachedCheckout); got != 1 {
		t.Errorf("reached_checkout = %v, want 1", got)
	}
	if got := metric(t, v, MetricHasIntent); got != 1 {
		t.Errorf("has_intent = %v, want 1 (checkout implies intent)", got)
	}
}

func TestExtractReassuranceKeywords(t *testing.T) {
	policy := ev("page_view", 0)
	policy.PageLocation = "https://shop.example/refund-policy"
	review := ev("page_view", 10)
	review.PageLocation = "https://shop.example/products/widget/reviews"
	fit := ev("page_view", 20)
	fit.PageLocation = "https://shop.example/size-guide"
	brand := ev("page_view", 30)
	brand.PageLocation = "https://shop.example/about"

	v, _ := Extract("s1", []events.RawEvent{policy, review, fit, brand})
	if got := metric(t, v, MetricPolicyViews); got != 1 {
		t.Errorf("policy_views = %v, want 1", got)
	}
	if got := metric(t, v, MetricReviewViews); got != 1 {
		t.Errorf("review_views = %v, want 1", got)
	}
	if got := metric(t, v, MetricFitGuideViews); got != 1 {
		t.Errorf("fit_guide_views = %v, want 1", got)
	}
	if got := metric(t, v, MetricBrandTrustViews); got != 1 {
		t.Errorf("brand_trust_views = %v, want 1", got)
	}
	if got := metric(t, v, MetricReassuranceTouches); got != 4 {
		t.Errorf("reassurance_touches = %v, want 4", got)
	}
}

func TestExtractSessionDuration(t *testing.T) {
	evs := []events.RawEvent{ev("view_item", 0), ev("add_to_cart", 150)}

	v, _ := Extract("s1", evs)
	if got := metric(t, v, MetricSessionDurationMin); got != 2.5 {
		t.Errorf("session_duration_min = %v, want 2.5", got)
	}
}

func TestExtractPogoTransitions(t *testing.T) {
	a := ev("view_item", 0)
	a.ItemID = "sku-1"
	b := ev("view_item", 20)
	b.ItemID = "sku-2"
	c := ev("view_item", 40)
	c.ItemID = "sku-1"
	// Beyond the one-minute window; not a pogo hop.
	d := ev("view_item", 200)
	d.ItemID = "sku-3"

	v, _ := Extract("s1", []events.RawEvent{a, b, c, d})
	if got := metric(t, v, MetricPogoTransitions); got != 2 {
		t.Errorf("pogo_transitions = %v, want 2", got)
	}
	if got := metric(t, v, MetricReturnViews); got != 1 {
		t.Errorf("return_views = %v, want 1", got)
	}
}

func TestExtractCategoryMetrics(t *testing.T) {
	a := ev("view_item", 0)
	a.ItemID, a.ItemCategory = "sku-1", "Shoes"
	b := ev("view_item", 10)
	b.ItemID, b.ItemCategory = "sku-2", "shoes"
	c := ev("view_item", 20)
	c.ItemID, c.ItemCategory = "sku-3", "Jackets"

	v, _ := Extract("s1", []events.RawEvent{a, b, c})
	if got := metric(t, v, MetricUniqueCategories); got != 2 {
		t.Errorf("unique_categories = %v, want 2", got)
	}
	if got := metric(t, v, MetricCategorySwitches); got != 1 {
		t.Errorf("category_switches = %v, want 1", got)
	}
	want := 2.0 / 3.0
	if got := metric(t, v, MetricSameCategoryRatio); math.Abs(got-want) > 1e-9 {
		t.Errorf("same_category_ratio = %v, want %v", got, want)
	}
}

func TestExtractPriceSpread(t *testing.T) {
	a := ev("view_item", 0)
	a.ItemID, a.Price = "sku-1", 50
	b := ev("view_item", 10)
	b.ItemID, b.Price = "sku-2", 150

	v, _ := Extract("s1", []events.RawEvent{a, b})
	if got := metric(t, v, MetricPriceSpreadCV); got != 0.5 {
		t.Errorf("price_spread_cv = %v, want 0.5", got)
	}

	// A single priced view has no spread.
	v, _ = Extract("s1", []events.RawEvent{a})
	if got := metric(t, v, MetricPriceSpreadCV); got != 0 {
		t.Errorf("price_spread_cv = %v, want 0", got)
	}
}

func TestExtractCartCheckoutSpan(t *testing.T) {
	cart := ev("page_view", 0)
	cart.PageLocation = "https://shop.example/cart"
	checkout := ev("page_view", 90)
	checkout.PageLocation = "https://shop.example/checkout"

	v, _ := Extract("s1", []events.RawEvent{cart, checkout})
	if got := metric(t, v, MetricTimeOnCartCheckout); got != 1.5 {
		t.Errorf("time_on_cart_checkout_min = %v, want 1.5", got)
	}
}

func TestExtractSentimentStub(t *testing.T) {
	v, _ := Extract("s1", []events.RawEvent{ev("view_item", 0)})
	if got := metric(t, v, MetricReviewSentimentNegative); got != 0 {
		t.Errorf("review_sentiment_negative = %v, want constant 0", got)
	}
}

func TestExtractBatch(t *testing.T) {
	batch := []events.RawEvent{
		{SessionID: "a", EventName: "view_item", Timestamp: float64(baseMillis)},
		{SessionID: "b", EventName: "search", Timestamp: float64(baseMillis)},
	}
	vectors := ExtractBatch(batch)
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors["a"].SessionID != "a" {
		t.Errorf("vector session id = %q, want a", vectors["a"].SessionID)
	}
}
