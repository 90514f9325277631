package domain

// TestResults is the aggregate snapshot for one test. It is derived from the
// current variants and hits on every call, never persisted.
type TestResults struct {
	TestID                uint            `json:"test_id"`
	TotalImpressions      int64           `json:"total_impressions"`
	TotalConversions      int64           `json:"total_conversions"`
	AverageConversionRate float64         `json:"average_conversion_rate"`
	ConfidenceLevel       float64         `json:"confidence_level"`
	WinnerVariantID       *uint           `json:"winner_variant_id"`
	Variants              []VariantResult `json:"variants"`
	Timeline              []TimelinePoint `json:"timeline"`
}

type VariantResult struct {
	Variant

	// Improvement is the percentage change of this variant's conversion rate
	// relative to the control. Nil for the control itself (the baseline) and
	// when the control rate is zero.
	Improvement *float64 `json:"improvement"`

	// Significance is the two-proportion z-test confidence (0-100) that this
	// variant beats the control. Zero for the control.
	Significance float64 `json:"significance"`

	RateLowerBound float64 `json:"rate_lower_bound"`
	RateUpperBound float64 `json:"rate_upper_bound"`
}

// TimelinePoint is one (UTC day, variant) bucket of hit traffic.
type TimelinePoint struct {
	Date        string `json:"date"`
	VariantID   uint   `json:"variant_id"`
	Impressions int64  `json:"impressions"`
	Conversions int64  `json:"conversions"`
}
