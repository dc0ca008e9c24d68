package risk

import (
	"github.com/ltss/ltss-api/schema"
)

const (
	// DefaultConfidence is the cumulative probability a discharge day must exceed
	DefaultConfidence = 0.95
	// UnconfidentDay is reported when no day of a CDF exceeds the confidence
	UnconfidentDay = 20
)

// band boundaries in days: <=6, <11, <=13, <=15, above
var dayThresholds = [4]float64{6, 11, 13, 15}

// inclusive day ranges summed into each risk band
var bandRanges = [schema.RiskBands][2]int{
	{0, 5},
	{6, 9},
	{10, 13},
	{14, 15},
	{16, schema.DaySupport - 1},
}

// observed chance of a long stay, in percent, per risk band
var longStayPercentage = map[int]int{
	1: 1,
	2: 2,
	3: 17,
	4: 48,
	5: 68,
}

// minorPDF is the fixed outcome of records the model has no coverage for
var minorPDF = schema.Curve{0.97, 0.02, 0.01}

// DayFromPDF is the expected day of a PDF
func DayFromPDF(pdf schema.Curve) float64 {
	var day float64
	for i, p := range pdf {
		day += float64(i) * p
	}
	return day
}

// DayFromCDF is the first day whose cumulative probability exceeds the
// confidence, or UnconfidentDay when there is none
func DayFromCDF(cdf schema.Curve, confidence float64) float64 {
	for day, p := range cdf {
		if p > confidence {
			return float64(day)
		}
	}
	return UnconfidentDay
}

// RiskFromDay stratifies a day estimate into a risk band 1 to 5
func RiskFromDay(day float64) int {
	switch {
	case day <= dayThresholds[0]:
		return 1
	case day < dayThresholds[1]:
		return 2
	case day <= dayThresholds[2]:
		return 3
	case day <= dayThresholds[3]:
		return 4
	}
	return 5
}

// RiskByPDF sums the PDF mass falling in each band's day range
func RiskByPDF(pdf schema.Curve) schema.BandDistribution {
	var bands schema.BandDistribution
	for band, r := range bandRanges {
		for day := r[0]; day <= r[1] && day < len(pdf); day++ {
			bands[band] += pdf[day]
		}
	}
	return bands
}

// RiskByCDF differences the CDF back into a PDF, keeping the day 0 mass,
// then applies RiskByPDF
func RiskByCDF(cdf schema.Curve) schema.BandDistribution {
	pdf := make(schema.Curve, len(cdf))
	for day := range cdf {
		if day == 0 {
			pdf[day] = cdf[day]
			continue
		}
		pdf[day] = cdf[day] - cdf[day-1]
	}
	return RiskByPDF(pdf)
}

// RiskOfLongStayByCategory converts a risk band to the percentage chance of
// a long stay. Values outside 1 to 5 give 0.
func RiskOfLongStayByCategory(band int) int {
	return longStayPercentage[band]
}
