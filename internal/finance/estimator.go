package finance

import (
	"math"
	"strings"

	"github.com/ecomlens/ecomlens/internal/events"
)

// Industry-default fallbacks, used only when the batch itself contains
// no purchase data. Both are flagged in the output so downstream
// consumers can label the estimate as modeled rather than measured.
const (
	DefaultAOV            = 85.00
	DefaultConversionRate = 0.025
)

var purchaseEventNames = map[string]bool{
	"purchase":        true,
	"order_completed": true,
	"transaction":     true,
}

// Baseline holds the batch-level financial inputs for revenue
// estimates.
type Baseline struct {
	AOV                 float64 `json:"aov"`
	AOVIsPlaceholder    bool    `json:"aov_is_placeholder"`
	ConversionRate      float64 `json:"conversion_rate"`
	ConversionIsDefault bool    `json:"conversion_is_default"`
	PurchaseCount       int     `json:"purchase_count"`
	TotalSessions       int     `json:"total_sessions"`
}

// Estimate computes the average order value and store-wide conversion
// rate for a batch. Negative or zero monetary values are treated as
// corrupt and excluded before aggregation, never clamped after.
func Estimate(batch []events.RawEvent, totalSessions int) Baseline {
	var sum float64
	var priced int
	purchases := 0
	purchasedSessions := map[string]bool{}

	for _, ev := range batch {
		if !purchaseEventNames[strings.ToLower(ev.EventName)] {
			continue
		}
		purchases++
		purchasedSessions[ev.SessionID] = true

		// Prefer the transaction-level value; fall back to the
		// line-item price.
		amount := ev.Value
		if amount <= 0 {
			amount = ev.Price
		}
		if amount <= 0 {
			continue
		}
		sum += amount
		priced++
	}

	b := Baseline{
		PurchaseCount: purchases,
		TotalSessions: totalSessions,
	}

	if priced > 0 {
		b.AOV = round2(sum / float64(priced))
	} else {
		b.AOV = DefaultAOV
		b.AOVIsPlaceholder = true
	}

	if len(purchasedSessions) > 0 && totalSessions > 0 {
		b.ConversionRate = float64(len(purchasedSessions)) / float64(totalSessions)
	} else {
		// A zero rate would zero out every downstream estimate, so an
		// empty batch falls back to a documented default instead.
		b.ConversionRate = DefaultConversionRate
		b.ConversionIsDefault = true
	}

	return b
}

// EffectiveRate returns the conversion rate to use for a pattern:
// the pattern-specific override when declared, otherwise the
// store-wide rate.
func (b Baseline) EffectiveRate(override float64) float64 {
	if override > 0 {
		return override
	}
	return b.ConversionRate
}

// RevenueAtRisk is eligibleSessions x AOV x rate, rounded to cents.
// Inputs are already filtered non-negative, so the result never is.
func RevenueAtRisk(eligibleSessions int, aov, rate float64) float64 {
	if eligibleSessions <= 0 || aov <= 0 || rate <= 0 {
		return 0
	}
	return round2(float64(eligibleSessions) * aov * rate)
}

// MaxPotentialRevenue is the 100%-conversion upper bound, used only as
// a comparison figure.
func MaxPotentialRevenue(eligibleSessions int, aov float64) float64 {
	if eligibleSessions <= 0 || aov <= 0 {
		return 0
	}
	return round2(float64(eligibleSessions) * aov)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
