package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ltss/ltss-api/schema"
)

const tolerance = 1e-9

func TestRiskFromDay(t *testing.T) {
	cases := map[float64]int{
		0:    1,
		6:    1,
		6.5:  2,
		10:   2,
		10.9: 2,
		11:   3,
		13:   3,
		14:   4,
		15:   4,
		16:   5,
		29:   5,
	}

	for day, band := range cases {
		assert.Equal(t, band, RiskFromDay(day), "wrong band for day %v", day)
	}
}

func TestDayFromPDF(t *testing.T) {
	pdf := schema.NewCurve()
	pdf[2] = 0.5
	pdf[6] = 0.5

	assert.InDelta(t, 4, DayFromPDF(pdf), tolerance)
	assert.InDelta(t, 0, DayFromPDF(schema.NewCurve()), tolerance)
}

func TestDayFromCDF(t *testing.T) {
	cdf := schema.NewCurve()
	for day := range cdf {
		cdf[day] = float64(day+1) / float64(schema.DaySupport)
	}

	assert.Equal(t, float64(28), DayFromCDF(cdf, 0.95))
	assert.Equal(t, float64(0), DayFromCDF(cdf, 0.01))
}

func TestDayFromCDFExceedsStrictly(t *testing.T) {
	cdf := schema.NewCurve()
	for day := 4; day < schema.DaySupport; day++ {
		cdf[day] = 0.95
	}
	cdf[29] = 0.951

	assert.Equal(t, float64(29), DayFromCDF(cdf, 0.95))
}

func TestDayFromCDFFallback(t *testing.T) {
	cdf := schema.NewCurve()
	for day := range cdf {
		cdf[day] = 0.5
	}

	assert.Equal(t, float64(UnconfidentDay), DayFromCDF(cdf, 0.95))
	assert.Equal(t, float64(UnconfidentDay), DayFromCDF(schema.NewCurve(), 0.95))
}

func TestRiskByPDFRanges(t *testing.T) {
	pdf := schema.NewCurve()
	for day := range pdf {
		pdf[day] = 1
	}

	assert.Equal(t, schema.BandDistribution{6, 4, 4, 2, 14}, RiskByPDF(pdf))
}

func TestRiskByPDFBoundaries(t *testing.T) {
	pdf := schema.NewCurve()
	pdf[5] = 0.1
	pdf[6] = 0.2
	pdf[13] = 0.3
	pdf[16] = 0.4

	bands := RiskByPDF(pdf)
	assert.InDelta(t, 0.1, bands[0], tolerance)
	assert.InDelta(t, 0.2, bands[1], tolerance)
	assert.InDelta(t, 0.3, bands[2], tolerance)
	assert.InDelta(t, 0, bands[3], tolerance)
	assert.InDelta(t, 0.4, bands[4], tolerance)
}

func TestRiskByCDFMatchesPDF(t *testing.T) {
	pdf := schema.NewCurve()
	pdf[0] = 0.2
	pdf[7] = 0.3
	pdf[14] = 0.1
	pdf[20] = 0.4

	cdf := schema.NewCurve()
	var running float64
	for day, p := range pdf {
		running += p
		cdf[day] = running
	}

	byCDF := RiskByCDF(cdf)
	byPDF := RiskByPDF(pdf)
	for band := range byPDF {
		assert.InDelta(t, byPDF[band], byCDF[band], tolerance, "band %d", band+1)
	}
	assert.InDelta(t, 0.2, byCDF[0], tolerance, "day 0 mass must be kept")
}

func TestRiskOfLongStayByCategory(t *testing.T) {
	expected := map[int]int{0: 0, 1: 1, 2: 2, 3: 17, 4: 48, 5: 68, 6: 0}
	for band, pct := range expected {
		assert.Equal(t, pct, RiskOfLongStayByCategory(band), "band %d", band)
	}
}
