package distribution

import (
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ltss/ltss-api/schema"
)

var (
	ErrNoSamples   = errors.New("no samples to build distributions from")
	ErrNoSelectors = errors.New("no selectors to build distributions for")
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "distribution")
}

// BuildOptions control the form of the per-category curves
type BuildOptions struct {
	// Demean subtracts the base distribution from each category PDF before
	// cumulation. The resulting curves are no longer probabilities.
	Demean bool
	// Cumulative stores CDFs instead of PDFs
	Cumulative bool
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Cumulative: true}
}

// Builder turns training samples into a distribution bundle
type Builder struct {
	selectors []string
}

func NewBuilder(selectors []string) *Builder {
	s := make([]string, len(selectors))
	copy(s, selectors)
	return &Builder{selectors: s}
}

// Build makes one length of stay curve per observed category of every
// selector plus the population-wide base distribution. Outcomes outside the
// day support are not counted.
func (b *Builder) Build(samples []schema.TrainingSample, opts BuildOptions) (*schema.DistributionBundle, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(b.selectors) == 0 {
		return nil, ErrNoSelectors
	}

	outcomes := make([]int, len(samples))
	for i, s := range samples {
		outcomes[i] = s.LengthOfStay
	}
	base := normalise(histogram(outcomes))

	distributions := make(map[string]map[string]schema.Curve, len(b.selectors))
	for _, selector := range b.selectors {
		if selector == schema.LengthOfStayField {
			continue
		}

		partitions := map[float64][]int{}
		for _, s := range samples {
			value, ok := s.Vector[selector]
			if !ok {
				value = schema.MissingValue
			}
			partitions[value] = append(partitions[value], s.LengthOfStay)
		}

		categories := make([]float64, 0, len(partitions))
		for c := range partitions {
			categories = append(categories, c)
		}
		sort.Float64s(categories)

		curves := make(map[string]schema.Curve, len(categories))
		for _, c := range categories {
			curve := normalise(histogram(partitions[c]))
			if opts.Demean {
				for day := range curve {
					curve[day] -= base[day]
				}
			}
			if opts.Cumulative {
				curve = cumulate(curve)
			}
			curves[schema.CategoryKey(c)] = curve
		}
		distributions[selector] = curves

		log.WithField("categories", len(categories)).Debugf("built distributions for %s", selector)
	}

	if opts.Demean {
		log.Warn("curves are de-meaned against the base distribution and are not probabilities")
	}

	cumulative := opts.Cumulative
	selectors := make([]string, len(b.selectors))
	copy(selectors, b.selectors)

	return &schema.DistributionBundle{
		Schema:           schema.DistributionSchema,
		Version:          schema.DistributionSchemaVersion,
		Selectors:        selectors,
		Cumulative:       &cumulative,
		Demeaned:         opts.Demean,
		BaseDistribution: base,
		Distributions:    distributions,
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}, nil
}

func histogram(outcomes []int) schema.Curve {
	counts := schema.NewCurve()
	for _, day := range outcomes {
		if day >= 0 && day < schema.DaySupport {
			counts[day]++
		}
	}
	return counts
}

// normalise scales counts to a PDF. All-zero counts stay all-zero.
func normalise(counts schema.Curve) schema.Curve {
	total := counts.Sum()
	if total == 0 {
		return counts
	}

	pdf := make(schema.Curve, len(counts))
	for i, c := range counts {
		pdf[i] = c / total
	}
	return pdf
}

func cumulate(pdf schema.Curve) schema.Curve {
	cdf := make(schema.Curve, len(pdf))
	var running float64
	for i, p := range pdf {
		running += p
		cdf[i] = running
	}
	return cdf
}
