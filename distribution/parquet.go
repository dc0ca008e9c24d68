package distribution

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/ltss/ltss-api/schema"
)

// BaseSelector names the base distribution rows of a parquet export
const BaseSelector = "__BASE__"

// CurveRow is one day of one curve in the tidy parquet export
type CurveRow struct {
	Selector   string  `parquet:"selector"`
	Category   string  `parquet:"category"`
	Day        int32   `parquet:"day"`
	Value      float64 `parquet:"value"`
	Cumulative bool    `parquet:"cumulative"`
	Demeaned   bool    `parquet:"demeaned"`
}

// WriteParquet exports the bundle as a tidy table for offline analysis
func WriteParquet(path string, bundle *schema.DistributionBundle) error {
	if err := Validate(bundle); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[CurveRow](file,
		parquet.Compression(&parquet.Snappy),
	)

	rows := curveRows(bundle)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		file.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	log.Infof("exported %d curve rows to %s", len(rows), path)
	return file.Close()
}

// ReadParquet rebuilds a bundle from a parquet export. Selectors are
// restored in file order; selectors that had no curves are not recoverable.
func ReadParquet(path string) (*schema.DistributionBundle, error) {
	rows, err := parquet.ReadFile[CurveRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrMissingMember, path)
	}

	cumulative := rows[0].Cumulative
	bundle := &schema.DistributionBundle{
		Schema:        schema.DistributionSchema,
		Version:       schema.DistributionSchemaVersion,
		Cumulative:    &cumulative,
		Demeaned:      rows[0].Demeaned,
		Distributions: map[string]map[string]schema.Curve{},
	}

	for _, row := range rows {
		if row.Day < 0 || int(row.Day) >= schema.DaySupport {
			return nil, fmt.Errorf("%w: day %d of %s=%s", ErrInvalidCurve, row.Day, row.Selector, row.Category)
		}

		if row.Selector == BaseSelector {
			if bundle.BaseDistribution == nil {
				bundle.BaseDistribution = schema.NewCurve()
			}
			bundle.BaseDistribution[row.Day] = row.Value
			continue
		}

		categories, ok := bundle.Distributions[row.Selector]
		if !ok {
			categories = map[string]schema.Curve{}
			bundle.Distributions[row.Selector] = categories
			bundle.Selectors = append(bundle.Selectors, row.Selector)
		}
		curve, ok := categories[row.Category]
		if !ok {
			curve = schema.NewCurve()
			categories[row.Category] = curve
		}
		curve[row.Day] = row.Value
	}

	if err := Validate(bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

func curveRows(bundle *schema.DistributionBundle) []CurveRow {
	cumulative := bundle.IsCumulative()
	rows := make([]CurveRow, 0, schema.DaySupport*(1+len(bundle.Distributions)))

	appendCurve := func(selector, category string, curve schema.Curve) {
		for day, v := range curve {
			rows = append(rows, CurveRow{
				Selector:   selector,
				Category:   category,
				Day:        int32(day),
				Value:      v,
				Cumulative: cumulative,
				Demeaned:   bundle.Demeaned,
			})
		}
	}

	appendCurve(BaseSelector, "", bundle.BaseDistribution)
	for _, selector := range exportOrder(bundle) {
		categories := bundle.Distributions[selector]
		keys := make([]string, 0, len(categories))
		for k := range categories {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return categoryLess(keys[i], keys[j]) })

		for _, k := range keys {
			appendCurve(selector, k, categories[k])
		}
	}
	return rows
}

// exportOrder lists the bundle's selectors first, then any other selector
// with curves in name order
func exportOrder(bundle *schema.DistributionBundle) []string {
	seen := map[string]struct{}{}
	order := make([]string, 0, len(bundle.Distributions))
	for _, s := range bundle.Selectors {
		if _, ok := bundle.Distributions[s]; !ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		order = append(order, s)
	}

	rest := make([]string, 0)
	for s := range bundle.Distributions {
		if _, ok := seen[s]; !ok {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func categoryLess(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}
