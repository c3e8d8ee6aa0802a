package patterns

import "github.com/ecomlens/ecomlens/internal/features"

// Builtin returns the shipped pattern set. These are data, not engine
// behavior: a deployment can replace or extend them with YAML files in
// the configured patterns directory.
func Builtin() []Definition {
	return []Definition{
		checkoutTrustDeficit(),
		decisionParalysis(),
		sizeFitUncertainty(),
		trustHesitation(),
	}
}

// BuiltinRegistry returns a registry preloaded with the shipped set.
func BuiltinRegistry() (*Registry, error) {
	return NewRegistry(Builtin()...)
}

func checkoutTrustDeficit() Definition {
	return Definition{
		ID:       "checkout_trust_deficit",
		Label:    "Checkout Trust Deficit",
		Category: "trust",
		Stage:    StagePostIntent,
		// Sessions that already reached checkout convert far above the
		// store baseline once the friction is removed.
		ConversionOverride: 0.30,
		Rules: []Rule{
			{ID: "reached_no_purchase", Weight: 35, Conditions: []Condition{
				{Metric: features.MetricReachedCheckout, Op: "==", Value: 1},
				{Metric: features.MetricCompletedPurchase, Op: "==", Value: 0},
			}},
			{ID: "policy_checking", Weight: 30, Conditions: []Condition{
				{Metric: features.MetricPolicyViews, Op: ">=", Value: 2},
			}},
			{ID: "checkout_dwell", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricTimeOnCartCheckout, Op: ">=", Value: 2},
			}},
			{ID: "cart_abandoned", Weight: 15, Conditions: []Condition{
				{Metric: features.MetricCartAdds, Op: ">=", Value: 1},
				{Metric: features.MetricCompletedPurchase, Op: "==", Value: 0},
			}},
		},
		Tiers: Tiers{Low: 40, Medium: 60, High: 80},
		Bonuses: []BonusCondition{
			{Condition: Condition{Metric: features.MetricReassuranceTouches, Op: ">=", Value: 3}, Points: 5},
			{Condition: Condition{Metric: features.MetricReviewViews, Op: ">=", Value: 1}, Points: 5},
		},
		Drivers: []Driver{
			{ID: "checkout_trust_dropoff", Label: "Trust drop-off at checkout", Conditions: []Condition{
				{Metric: features.MetricPolicyViews, Op: ">=", Value: 2},
				{Metric: features.MetricReachedCheckout, Op: "==", Value: 1},
			}},
			{ID: "payment_anxiety", Label: "Hesitation on the payment step", Conditions: []Condition{
				{Metric: features.MetricTimeOnCartCheckout, Op: ">=", Value: 3},
				{Metric: features.MetricCompletedPurchase, Op: "==", Value: 0},
			}},
			{ID: "shipping_cost_shock", Label: "Shipping and return cost concern", Conditions: []Condition{
				{Metric: features.MetricPolicyViews, Op: ">=", Value: 1},
				{Metric: features.MetricCartAdds, Op: ">=", Value: 1},
				{Metric: features.MetricCompletedPurchase, Op: "==", Value: 0},
			}},
			negativeReviewSentimentDriver(),
		},
		Buckets: []Bucket{
			{
				ID:          "trust_signals",
				Name:        "Strengthen checkout trust signals",
				Description: "Surface guarantees, security badges, and the return policy directly inside the checkout flow.",
				WhyItWorks:  "Shoppers who leave checkout to re-read policies rarely come back; answering the doubt in place removes the exit.",
				ExampleActions: []string{
					"Add a money-back guarantee badge next to the pay button",
					"Summarize the return policy in one line on the payment step",
					"Show accepted payment methods and security certification above the fold",
				},
			},
			{
				ID:          "checkout_transparency",
				Name:        "Make total costs visible early",
				Description: "Show shipping, taxes, and delivery dates before the final step.",
				WhyItWorks:  "Late-revealed costs are the most cited reason for checkout abandonment; early disclosure converts hesitation into an informed decision.",
				ExampleActions: []string{
					"Show estimated shipping cost on the cart page",
					"Display the full order total before payment details are requested",
					"Add a delivery-date estimate to the cart summary",
				},
			},
			{
				ID:          "friction_reduction",
				Name:        "Shorten the checkout path",
				Description: "Cut form fields and steps between cart and confirmation.",
				WhyItWorks:  "Every extra field gives an already-hesitant shopper another chance to reconsider.",
				ExampleActions: []string{
					"Enable guest checkout",
					"Add an express payment option (Apple Pay / Google Pay / PayPal)",
					"Collapse billing address entry when it matches shipping",
				},
			},
		},
		Mapping: Mapping{
			Rules: []MappingRule{
				{IncludeAll: []string{"checkout_trust_dropoff", "payment_anxiety"},
					Primary: "trust_signals", Secondary: "checkout_transparency"},
				{IncludeAll: []string{"checkout_trust_dropoff"},
					Primary: "trust_signals", Secondary: "friction_reduction"},
				{IncludeAll: []string{"shipping_cost_shock"},
					Primary: "checkout_transparency", Secondary: "trust_signals"},
				{IncludeAny: []string{"payment_anxiety"},
					Primary: "friction_reduction", Secondary: "trust_signals"},
			},
			DefaultPrimary:   "trust_signals",
			DefaultSecondary: "checkout_transparency",
		},
	}
}

func decisionParalysis() Definition {
	return Definition{
		ID:       "decision_paralysis",
		Label:    "Decision Paralysis",
		Category: "choice",
		Stage:    StagePreIntent,
		Rules: []Rule{
			{ID: "heavy_browsing", Weight: 25, Conditions: []Condition{
				{Metric: features.MetricProductsViewed, Op: ">=", Value: 8},
			}},
			{ID: "pogo_sticking", Weight: 25, Conditions: []Condition{
				{Metric: features.MetricPogoTransitions, Op: ">=", Value: 3},
			}},
			{ID: "category_wandering", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricCategorySwitches, Op: ">=", Value: 4},
			}},
			{ID: "repeat_revisits", Weight: 15, Conditions: []Condition{
				{Metric: features.MetricReturnViews, Op: ">=", Value: 2},
			}},
			{ID: "no_intent_formed", Weight: 15, Conditions: []Condition{
				{Metric: features.MetricHasIntent, Op: "==", Value: 0},
				{Metric: features.MetricProductsViewed, Op: ">=", Value: 3},
			}},
		},
		Tiers: Tiers{Low: 35, Medium: 55, High: 75},
		Bonuses: []BonusCondition{
			{Condition: Condition{Metric: features.MetricPriceSpreadCV, Op: ">=", Value: 0.5}, Points: 5},
			{Condition: Condition{Metric: features.MetricSearches, Op: ">=", Value: 3}, Points: 5},
		},
		Drivers: []Driver{
			{ID: "option_overload", Label: "Too many comparable options", Conditions: []Condition{
				{Metric: features.MetricProductsViewed, Op: ">=", Value: 8},
				{Metric: features.MetricUniqueCategories, Op: ">=", Value: 3},
			}},
			{ID: "price_uncertainty", Label: "Wide price spread across viewed items", Conditions: []Condition{
				{Metric: features.MetricPriceSpreadCV, Op: ">=", Value: 0.5},
			}},
			{ID: "comparison_loop", Label: "Stuck comparing the same items", Conditions: []Condition{
				{Metric: features.MetricPogoTransitions, Op: ">=", Value: 3},
				{Metric: features.MetricReturnViews, Op: ">=", Value: 1},
			}},
		},
		Buckets: []Bucket{
			{
				ID:          "curation",
				Name:        "Curate and narrow the assortment",
				Description: "Guide shoppers to a short list instead of the full catalog.",
				WhyItWorks:  "Fewer, clearly differentiated options turn an open-ended comparison into a closable decision.",
				ExampleActions: []string{
					"Add a 'bestsellers' or 'staff picks' shelf to category pages",
					"Introduce a guided finder quiz for the top category",
					"Cap default category listings and put refinement behind filters",
				},
			},
			{
				ID:          "comparison_tools",
				Name:        "Make comparison explicit",
				Description: "Side-by-side comparison and difference highlighting for similar items.",
				WhyItWorks:  "Shoppers ping-ponging between tabs are comparing anyway; doing it for them ends the loop.",
				ExampleActions: []string{
					"Add a compare tray for up to three products",
					"Highlight the differing attributes between similar items",
					"Show 'customers chose this over X' callouts",
				},
			},
			{
				ID:          "social_proof",
				Name:        "Break ties with social proof",
				Description: "Ratings, purchase counts, and popularity cues on listing pages.",
				WhyItWorks:  "When options look equivalent, evidence of other buyers' choices resolves the tie.",
				ExampleActions: []string{
					"Show review counts and average rating on category cards",
					"Badge the most-purchased item in each category",
					"Surface recent-purchase notifications on product pages",
				},
			},
		},
		Mapping: Mapping{
			Rules: []MappingRule{
				{IncludeAll: []string{"comparison_loop", "option_overload"},
					Primary: "comparison_tools", Secondary: "curation"},
				{IncludeAll: []string{"option_overload"},
					Primary: "curation", Secondary: "social_proof"},
				{IncludeAny: []string{"price_uncertainty", "comparison_loop"},
					Primary: "comparison_tools", Secondary: "social_proof"},
			},
			DefaultPrimary:   "curation",
			DefaultSecondary: "social_proof",
		},
	}
}

func sizeFitUncertainty() Definition {
	return Definition{
		ID:       "size_fit_uncertainty",
		Label:    "Size & Fit Uncertainty",
		Category: "product_confidence",
		Stage:    StagePreIntent,
		Rules: []Rule{
			{ID: "fit_guide_checking", Weight: 35, Conditions: []Condition{
				{Metric: features.MetricFitGuideViews, Op: ">=", Value: 1},
			}},
			{ID: "same_item_deliberation", Weight: 25, Conditions: []Condition{
				{Metric: features.MetricSameCategoryRatio, Op: ">=", Value: 0.6},
				{Metric: features.MetricReturnViews, Op: ">=", Value: 1},
			}},
			{ID: "browsing_without_commitment", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricCartAdds, Op: "==", Value: 0},
				{Metric: features.MetricProductsViewed, Op: ">=", Value: 3},
			}},
			{ID: "return_policy_research", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricPolicyViews, Op: ">=", Value: 1},
			}},
		},
		Tiers: Tiers{Low: 40, Medium: 60, High: 80},
		Bonuses: []BonusCondition{
			{Condition: Condition{Metric: features.MetricFitGuideViews, Op: ">=", Value: 2}, Points: 5},
			{Condition: Condition{Metric: features.MetricSessionDurationMin, Op: ">=", Value: 10}, Points: 5},
		},
		Drivers: []Driver{
			{ID: "sizing_doubt", Label: "Unsure which size to pick", Conditions: []Condition{
				{Metric: features.MetricFitGuideViews, Op: ">=", Value: 1},
			}},
			{ID: "return_risk_aversion", Label: "Worried about having to return", Conditions: []Condition{
				{Metric: features.MetricPolicyViews, Op: ">=", Value: 1},
				{Metric: features.MetricCartAdds, Op: "==", Value: 0},
			}},
			{ID: "visual_uncertainty", Label: "Cannot judge the product from photos", Conditions: []Condition{
				{Metric: features.MetricReturnViews, Op: ">=", Value: 2},
				{Metric: features.MetricSameCategoryRatio, Op: ">=", Value: 0.6},
			}},
		},
		Buckets: []Bucket{
			{
				ID:          "fit_guidance",
				Name:        "Improve fit guidance",
				Description: "Interactive size finders and model measurements on product pages.",
				WhyItWorks:  "Sizing doubt is an information gap; closing it on the page removes the main reason not to add to cart.",
				ExampleActions: []string{
					"Embed a size recommendation widget on apparel pages",
					"List model height and worn size next to photos",
					"Add 'true to size' aggregate feedback from past buyers",
				},
			},
			{
				ID:          "risk_reversal",
				Name:        "Reverse the return risk",
				Description: "Free returns, home try-on, and prominent policy messaging.",
				WhyItWorks:  "When the store carries the downside of a wrong size, the purchase stops being a gamble.",
				ExampleActions: []string{
					"Offer free returns on first orders",
					"Put 'free 30-day returns' on the product page near the price",
					"Add a keep-or-return try-at-home option for premium lines",
				},
			},
			{
				ID:          "ugc_photos",
				Name:        "Show the product on real customers",
				Description: "Customer photos and videos across body types and contexts.",
				WhyItWorks:  "Real-world photos answer the fit question studio shots cannot.",
				ExampleActions: []string{
					"Add a customer photo gallery to product pages",
					"Request photos in post-purchase review emails",
					"Filter customer photos by size purchased",
				},
			},
		},
		Mapping: Mapping{
			Rules: []MappingRule{
				{IncludeAll: []string{"sizing_doubt", "return_risk_aversion"},
					Primary: "risk_reversal", Secondary: "fit_guidance"},
				{IncludeAll: []string{"sizing_doubt"},
					Primary: "fit_guidance", Secondary: "ugc_photos"},
				{IncludeAny: []string{"visual_uncertainty"},
					Primary: "ugc_photos", Secondary: "fit_guidance"},
			},
			DefaultPrimary:   "fit_guidance",
			DefaultSecondary: "risk_reversal",
		},
	}
}

func trustHesitation() Definition {
	return Definition{
		ID:       "trust_hesitation",
		Label:    "Trust Hesitation",
		Category: "trust",
		Stage:    StagePreIntent,
		Rules: []Rule{
			{ID: "brand_research", Weight: 30, Conditions: []Condition{
				{Metric: features.MetricBrandTrustViews, Op: ">=", Value: 1},
			}},
			{ID: "review_hunting", Weight: 30, Conditions: []Condition{
				{Metric: features.MetricReviewViews, Op: ">=", Value: 2},
			}},
			{ID: "long_deliberation", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricSessionDurationMin, Op: ">=", Value: 8},
			}},
			{ID: "no_intent_formed", Weight: 20, Conditions: []Condition{
				{Metric: features.MetricHasIntent, Op: "==", Value: 0},
			}},
		},
		Tiers: Tiers{Low: 40, Medium: 60, High: 80},
		Bonuses: []BonusCondition{
			{Condition: Condition{Metric: features.MetricPolicyViews, Op: ">=", Value: 1}, Points: 5},
			{Condition: Condition{Metric: features.MetricReassuranceTouches, Op: ">=", Value: 4}, Points: 5},
		},
		Drivers: []Driver{
			{ID: "brand_unfamiliarity", Label: "Does not know the brand yet", Conditions: []Condition{
				{Metric: features.MetricBrandTrustViews, Op: ">=", Value: 1},
				{Metric: features.MetricHasIntent, Op: "==", Value: 0},
			}},
			{ID: "social_proof_seeking", Label: "Looking for evidence from other buyers", Conditions: []Condition{
				{Metric: features.MetricReviewViews, Op: ">=", Value: 2},
			}},
			negativeReviewSentimentDriver(),
		},
		Buckets: []Bucket{
			{
				ID:          "credibility_signals",
				Name:        "Establish brand credibility",
				Description: "Press mentions, certifications, and company story placed along the browsing path.",
				WhyItWorks:  "First-time visitors checking the about page are asking 'is this store real'; answering early keeps them in the funnel.",
				ExampleActions: []string{
					"Add an 'as seen in' press bar to the homepage",
					"Show years in business and order count in the site footer",
					"Link third-party trust ratings (e.g. Trustpilot) from product pages",
				},
			},
			{
				ID:          "guarantees",
				Name:        "Lead with guarantees",
				Description: "Money-back and authenticity guarantees stated before checkout.",
				WhyItWorks:  "A guarantee converts an unverifiable trust question into a bounded, reversible risk.",
				ExampleActions: []string{
					"State the money-back guarantee on every product page",
					"Add an authenticity promise for branded goods",
					"Publish the support response-time commitment",
				},
			},
			{
				ID:          "review_surfacing",
				Name:        "Bring reviews to the shopper",
				Description: "Put review volume and excerpts where the shopper already is.",
				WhyItWorks:  "Shoppers hunting for reviews off-site may never come back; keeping the evidence on-page keeps the session alive.",
				ExampleActions: []string{
					"Show top positive and top critical review side by side",
					"Add review snippets to search results",
					"Display verified-buyer badges on reviews",
				},
			},
		},
		Mapping: Mapping{
			Rules: []MappingRule{
				{IncludeAll: []string{"brand_unfamiliarity", "social_proof_seeking"},
					Primary: "credibility_signals", Secondary: "review_surfacing"},
				{IncludeAll: []string{"social_proof_seeking"},
					Primary: "review_surfacing", Secondary: "guarantees"},
				{IncludeAll: []string{"brand_unfamiliarity"},
					Primary: "credibility_signals", Secondary: "guarantees"},
			},
			DefaultPrimary:   "credibility_signals",
			DefaultSecondary: "guarantees",
		},
	}
}

// negativeReviewSentimentDriver is a documented stub: review-text
// sentiment is not analyzed, the underlying metric is always zero, and
// the driver therefore never activates. Kept so pattern content and
// persisted driver vocabularies stay stable if sentiment ever ships.
func negativeReviewSentimentDriver() Driver {
	return Driver{
		ID:    "negative_review_sentiment",
		Label: "Put off by negative reviews",
		Conditions: []Condition{
			{Metric: features.MetricReviewSentimentNegative, Op: ">", Value: 0},
		},
	}
}
