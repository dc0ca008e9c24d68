package risk

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ltss/ltss-api/distribution"
	"github.com/ltss/ltss-api/schema"
)

var (
	ErrNoSelectors      = errors.New("no model selectors")
	ErrSelectorMismatch = errors.New("selectors differ from the ones the distributions were built with")
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "risk")
}

// Model answers risk queries from a loaded distribution bundle. It never
// mutates the bundle and is safe for concurrent use.
type Model struct {
	bundle    *schema.DistributionBundle
	selectors []string
	base      schema.Curve
}

// NewModel validates the bundle against the selectors used for lookups. The
// selectors must equal, in content and order, those recorded in the bundle.
func NewModel(bundle *schema.DistributionBundle, selectors []string) (*Model, error) {
	if len(selectors) == 0 {
		return nil, ErrNoSelectors
	}
	if err := distribution.Validate(bundle); err != nil {
		return nil, err
	}

	if len(bundle.Selectors) == 0 {
		log.Warn("distribution bundle does not record its selectors, lookups are not checked")
	} else if !sameSelectors(bundle.Selectors, selectors) {
		return nil, fmt.Errorf("%w: bundle %v, configured %v", ErrSelectorMismatch, bundle.Selectors, selectors)
	}

	if bundle.Demeaned {
		log.Warn("distribution bundle is de-meaned, day estimates and band distributions are not probabilities")
	}

	s := make([]string, len(selectors))
	copy(s, selectors)

	return &Model{
		bundle:    bundle,
		selectors: s,
		base:      bundle.BaseDistribution.Clone(),
	}, nil
}

// LoadModel loads a bundle saved by distribution.Save and builds a model
func LoadModel(path string, selectors []string) (*Model, error) {
	bundle, err := distribution.Load(path)
	if err != nil {
		return nil, err
	}
	return NewModel(bundle, selectors)
}

func (m *Model) Selectors() []string {
	return m.selectors
}

func (m *Model) Cumulative() bool {
	return m.bundle.IsCumulative()
}

// ComputeFromRecord averages the curves of every selector whose category is
// known, falling back to the base distribution, and returns a day estimate
// with the record's curve. The base distribution is a PDF and is returned
// as stored, with the bundle's day rule applied to it. With useMax the day
// is the first peak of the curve instead of the estimate.
func (m *Model) ComputeFromRecord(v schema.Vector, confidence float64, useMax bool) (float64, schema.Curve) {
	if IsMinor(v) {
		pdf := schema.NewCurve()
		copy(pdf, minorPDF)
		return 0, pdf
	}

	curve := schema.NewCurve()
	count := 0
	for _, selector := range m.selectors {
		c, ok := m.curveFor(v, selector)
		if !ok {
			continue
		}
		for day := range curve {
			curve[day] += c[day]
		}
		count++
	}

	if count > 0 {
		for day := range curve {
			curve[day] /= float64(count)
		}
	} else {
		curve = m.base.Clone()
	}

	if useMax {
		return float64(argmax(curve)), curve
	}
	return m.day(curve, confidence), curve
}

// RiskAndDayFromRecord breaks the risk down per selector, in selector order.
// Selectors whose category has no curve are omitted.
func (m *Model) RiskAndDayFromRecord(v schema.Vector, confidence float64) []schema.FactorRisk {
	factors := make([]schema.FactorRisk, 0, len(m.selectors))
	for _, selector := range m.selectors {
		curve, ok := m.curveFor(v, selector)
		if !ok {
			continue
		}
		factors = append(factors, m.factor(selector, curve, confidence))
	}
	return factors
}

// RiskAndCatByRecord aggregates the per selector risks. The aggregate band
// is the lowest factor band. When no selector matches, the band comes from
// the base distribution's day, its band distribution from the base PDF, and
// there is no dominant factor.
func (m *Model) RiskAndCatByRecord(v schema.Vector, confidence float64) schema.RiskProfile {
	factors := m.RiskAndDayFromRecord(v, confidence)
	profile := schema.RiskProfile{
		RiskByFactor: map[string]int{},
		Factors:      factors,
	}

	if len(factors) == 0 {
		day := m.day(m.base, confidence)
		profile.RiskBand = RiskFromDay(day)
		profile.BandDistribution = RiskByPDF(m.base)
		return profile
	}

	var highest float64
	profile.RiskBand = factors[0].RiskBand
	for i := range factors {
		f := factors[i]

		// Compares the mass accumulated from earlier factors, not this
		// factor's own, so the first factor is never chosen.
		if profile.BandDistribution[schema.RiskBands-1] > highest {
			highest = profile.BandDistribution[schema.RiskBands-1]
			profile.DominantFactor = &factors[i].Selector
		}

		for band := range profile.BandDistribution {
			profile.BandDistribution[band] += f.BandDistribution[band]
		}
		profile.RiskByFactor[f.Selector] = f.RiskBand
		if f.RiskBand < profile.RiskBand {
			profile.RiskBand = f.RiskBand
		}
	}

	for band := range profile.BandDistribution {
		profile.BandDistribution[band] /= float64(len(factors))
	}
	return profile
}

// Predict fuses the distribution model with an optional external day
// estimate. The external estimate can only raise the risk band.
func (m *Model) Predict(v schema.Vector, confidence float64, externalDay *float64) schema.Prediction {
	day, _ := m.ComputeFromRecord(v, confidence, false)
	profile := m.RiskAndCatByRecord(v, confidence)

	ceiling := profile.RiskBand
	var predicted *float64
	if externalDay != nil {
		if band := RiskFromDay(*externalDay); band > ceiling {
			ceiling = band
		}
		d := *externalDay
		predicted = &d
	}

	return schema.Prediction{
		RiskStratification:    ceiling,
		RiskCatProbGeneral1:   profile.BandDistribution[0],
		RiskCatProbGeneral2:   profile.BandDistribution[1],
		RiskCatProbGeneral3:   profile.BandDistribution[2],
		RiskCatProbGeneral4:   profile.BandDistribution[3],
		RiskCatProbGeneral5:   profile.BandDistribution[4],
		BiggestRiskFactor:     profile.DominantFactor,
		RiskByCategory:        profile.RiskByFactor,
		PercentageRiskCat:     RiskOfLongStayByCategory(profile.RiskBand),
		MotDays:               int(day),
		PredictedLengthOfStay: predicted,
	}
}

// IsMinor reports whether the record is flagged as a non-major case
func IsMinor(v schema.Vector) bool {
	major, ok := v[schema.IsMajorField]
	return ok && major != 1
}

func (m *Model) curveFor(v schema.Vector, selector string) (schema.Curve, bool) {
	value, ok := v[selector]
	if !ok {
		return nil, false
	}
	return m.bundle.Lookup(selector, schema.CategoryKey(value))
}

func (m *Model) day(curve schema.Curve, confidence float64) float64 {
	if m.bundle.IsCumulative() {
		return DayFromCDF(curve, confidence)
	}
	return DayFromPDF(curve)
}

func (m *Model) factor(selector string, curve schema.Curve, confidence float64) schema.FactorRisk {
	day := m.day(curve, confidence)
	f := schema.FactorRisk{
		Selector: selector,
		Day:      day,
		RiskBand: RiskFromDay(day),
	}
	if m.bundle.IsCumulative() {
		f.BandDistribution = RiskByCDF(curve)
	} else {
		f.BandDistribution = RiskByPDF(curve)
	}
	return f
}

func sameSelectors(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func argmax(curve schema.Curve) int {
	best := 0
	for day, p := range curve {
		if p > curve[best] {
			best = day
		}
	}
	return best
}
