package schema

import (
	"strconv"
	"time"
)

const (
	// DaySupport is the number of days covered by every distribution curve
	DaySupport = 30

	DistributionSchema        = "ltss.risk-distributions"
	DistributionSchemaVersion = 1

	DistributionCollection = "distribution"
)

// CategoryKey is the canonical text of a selector value, e.g. 1 -> "1",
// -1 -> "-1", 2.5 -> "2.5"
func CategoryKey(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Curve is a per-day probability curve over DaySupport days, either a PDF or
// its cumulative form
type Curve []float64

// NewCurve returns an all-zero curve
func NewCurve() Curve {
	return make(Curve, DaySupport)
}

// Clone copies the curve
func (c Curve) Clone() Curve {
	cloned := make(Curve, len(c))
	copy(cloned, c)
	return cloned
}

// Sum of all values in the curve
func (c Curve) Sum() float64 {
	var total float64
	for _, v := range c {
		total += v
	}
	return total
}

// DistributionBundle is the persisted distribution store: one curve per
// observed category of each selector plus a population-wide base curve.
type DistributionBundle struct {
	Schema           string                      `json:"schema" bson:"schema"`
	Version          int                         `json:"version" bson:"version"`
	Selectors        []string                    `json:"selectors" bson:"selectors"`
	Cumulative       *bool                       `json:"cumulative" bson:"cumulative"`
	Demeaned         bool                        `json:"demeaned" bson:"demeaned"`
	BaseDistribution Curve                       `json:"base_distribution" bson:"base_distribution"`
	Distributions    map[string]map[string]Curve `json:"distributions" bson:"distributions"`
	CreatedAt        time.Time                   `json:"created_at" bson:"created_at"`
}

// IsCumulative reports whether the stored curves are CDFs
func (b *DistributionBundle) IsCumulative() bool {
	return b.Cumulative != nil && *b.Cumulative
}

// Lookup returns the curve stored for a selector's category
func (b *DistributionBundle) Lookup(selector, category string) (Curve, bool) {
	categories, ok := b.Distributions[selector]
	if !ok {
		return nil, false
	}
	c, ok := categories[category]
	return c, ok
}
