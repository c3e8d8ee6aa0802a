package features

// Canonical metric names emitted by the extractor. Pattern definitions
// reference metrics by these names; a condition naming anything else
// simply never matches.
const (
	MetricProductsViewed       = "products_viewed"
	MetricUniqueProductsViewed = "unique_products_viewed"
	MetricCartAdds             = "cart_adds"
	MetricSearches             = "searches"
	MetricSessionDurationMin   = "session_duration_min"
	MetricViewToCartRatio      = "view_to_cart_ratio"
	MetricSameCategoryRatio    = "same_category_ratio"
	MetricUniqueCategories     = "unique_categories"
	MetricCategorySwitches     = "category_switches"
	MetricReturnViews          = "return_views"
	MetricPogoTransitions      = "pogo_transitions"
	MetricPolicyViews          = "policy_views"
	MetricReviewViews          = "review_views"
	MetricFitGuideViews        = "fit_guide_views"
	MetricBrandTrustViews      = "brand_trust_views"
	MetricReassuranceTouches   = "reassurance_touches"
	MetricReachedCheckout      = "reached_checkout"
	MetricCompletedPurchase    = "completed_purchase"
	MetricHasIntent            = "has_intent"
	MetricTimeOnCartCheckout   = "time_on_cart_checkout_min"
	MetricPriceSpreadCV        = "price_spread_cv"

	// Sentiment analysis of review text is out of scope; the metric is
	// emitted as a constant zero so drivers conditioned on it stay
	// defined but inactive.
	MetricReviewSentimentNegative = "review_sentiment_negative"
)

// Vector is one session's extracted behavioral feature set.
type Vector struct {
	SessionID string             `json:"session_id"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Metric looks up a metric by name. The boolean is false when the
// metric is not present in the vector.
func (v Vector) Metric(name string) (float64, bool) {
	val, ok := v.Metrics[name]
	return val, ok
}
