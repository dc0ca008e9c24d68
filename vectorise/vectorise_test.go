package vectorise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltss/ltss-api/schema"
)

func testVectoriser(t *testing.T) *Vectoriser {
	m, err := LoadMapping("testdata/mapping.json")
	require.NoError(t, err)
	return NewVectoriser(m)
}

func TestVectoriseIsDeterministic(t *testing.T) {
	v := testVectoriser(t)
	record := schema.RawRecord{
		"Age":              "67",
		"Admission method": "emergency",
		"IS_MAJOR":         "y",
		"SPECIALTY":        "a, c",
		"DIAGNOSIS":        "a, k",
		"SPELL_LOS":        "4",
	}

	first := v.Vectorise(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, v.Vectorise(record))
	}
}

func TestVectoriseSentinels(t *testing.T) {
	v := testVectoriser(t)
	vector := v.Vectorise(schema.RawRecord{
		"WARD_CODE":        "null",
		"ADMISSION_METHOD": "walk-in",
	})

	assert.Equal(t, float64(-1), vector["WARD_CODE"])
	assert.Equal(t, float64(-1), vector["ADMISSION_METHOD"])
	assert.Equal(t, float64(-1), vector[schema.LengthOfStayField])

	vector = v.Vectorise(schema.RawRecord{"ADMISSION_METHOD": ""})
	assert.Equal(t, float64(-1), vector["ADMISSION_METHOD"])
}

func TestVectoriseCopy(t *testing.T) {
	v := testVectoriser(t)

	assert.Equal(t, float64(12), v.Vectorise(schema.RawRecord{"WARD_CODE": " 12 "})["WARD_CODE"])
	assert.Equal(t, 3.5, v.Vectorise(schema.RawRecord{"WARD_CODE": "3.5"})["WARD_CODE"])
	assert.Equal(t, float64(-1), v.Vectorise(schema.RawRecord{"WARD_CODE": "ward a"})["WARD_CODE"])
	assert.Equal(t, float64(-1), v.Vectorise(schema.RawRecord{"WARD_CODE": "   "})["WARD_CODE"])
}

func TestVectoriseBinary(t *testing.T) {
	v := testVectoriser(t)

	assert.Equal(t, float64(1), v.Vectorise(schema.RawRecord{"IS_MAJOR": "Y"})["IS_MAJOR"])
	assert.Equal(t, float64(1), v.Vectorise(schema.RawRecord{"IS_MAJOR": "y"})["IS_MAJOR"])
	assert.Equal(t, float64(0), v.Vectorise(schema.RawRecord{"IS_MAJOR": "N"})["IS_MAJOR"])
	assert.Equal(t, float64(0), v.Vectorise(schema.RawRecord{"IS_MAJOR": "null"})["IS_MAJOR"])
	assert.Equal(t, float64(0), v.Vectorise(schema.RawRecord{"IS_MAJOR": "1"})["IS_MAJOR"])
}

func TestVectoriseAgeCategorise(t *testing.T) {
	v := testVectoriser(t)

	vector := v.Vectorise(schema.RawRecord{"AGE": "67"})
	assert.Equal(t, float64(67), vector["AGE"])
	assert.Equal(t, float64(6), vector["AGE_CATEGORY"])

	vector = v.Vectorise(schema.RawRecord{"AGE": "9"})
	assert.Equal(t, float64(0), vector["AGE_CATEGORY"])

	vector = v.Vectorise(schema.RawRecord{"AGE": "null"})
	assert.Equal(t, float64(-1), vector["AGE"])
	assert.Equal(t, float64(-1), vector["AGE_CATEGORY"])
}

func TestVectoriseCategorise(t *testing.T) {
	v := testVectoriser(t)

	assert.Equal(t, float64(1), v.Vectorise(schema.RawRecord{"ADMISSION_METHOD": "Emergency"})["ADMISSION_METHOD"])
	assert.Equal(t, float64(0), v.Vectorise(schema.RawRecord{"ADMISSION_METHOD": "elective"})["ADMISSION_METHOD"])
}

func TestVectoriseCodeList(t *testing.T) {
	v := testVectoriser(t)
	vector := v.Vectorise(schema.RawRecord{"SPECIALTY": "A, C, D"})

	expected := map[string]float64{
		"SPECIALTY_CODE_A": 1,
		"SPECIALTY_CODE_B": 0,
		"SPECIALTY_CODE_C": 1,
		"SPECIALTY_CODE_D": 1,
		"SPECIALTY_CODE_E": 0,
		"SPECIALTY_CODE_F": 0,
	}
	count := 0
	for key, value := range vector {
		if len(key) > len("SPECIALTY_CODE_") && key[:len("SPECIALTY_CODE_")] == "SPECIALTY_CODE_" {
			count++
			assert.Equal(t, expected[key], value, key)
		}
	}
	assert.Equal(t, 6, count, "wrong number of code keys")
}

func TestVectoriseCodeListSeparators(t *testing.T) {
	v := testVectoriser(t)

	vector := v.Vectorise(schema.RawRecord{"SPECIALTY": "b e;"})
	assert.Equal(t, float64(1), vector["SPECIALTY_CODE_B"])
	assert.Equal(t, float64(1), vector["SPECIALTY_CODE_E"])

	vector = v.Vectorise(schema.RawRecord{"SPECIALTY": "f;, null, , z"})
	assert.Equal(t, float64(1), vector["SPECIALTY_CODE_F"])
	_, ok := vector["SPECIALTY_CODE_Z"]
	assert.False(t, ok, "unknown code must not add a key")
	_, ok = vector["SPECIALTY_CODE_NULL"]
	assert.False(t, ok)
}

func TestVectoriseCodeListAbsentValue(t *testing.T) {
	v := testVectoriser(t)
	vector := v.Vectorise(schema.RawRecord{"SPECIALTY": "null"})

	for _, code := range []string{"A", "B", "C", "D", "E", "F"} {
		value, ok := vector["SPECIALTY_CODE_"+code]
		assert.True(t, ok)
		assert.Equal(t, float64(0), value)
	}
}

func TestVectoriseTopFrequencyCount(t *testing.T) {
	v := testVectoriser(t)
	vector := v.Vectorise(schema.RawRecord{"DIAGNOSIS": "A, D, E, S, T"})

	assert.Equal(t, float64(3), vector["DIAGNOSIS_TOP_0_10"])
	assert.Equal(t, float64(2), vector["DIAGNOSIS_TOP_11_20"])
	assert.Equal(t, float64(1), vector["DIAGNOSIS_CODE_A"])
	assert.Equal(t, float64(0), vector["DIAGNOSIS_CODE_B"])
	assert.Equal(t, float64(1), vector["DIAGNOSIS_CODE_T"])
}

func TestVectoriseOverlappingBuckets(t *testing.T) {
	m := NewMapping(map[string]schema.Transform{
		"PROCEDURE": schema.TopFrequencyTransform{
			Codes: []string{"X", "Y"},
			Buckets: []schema.FrequencyBucket{
				{Name: "TOP_0_10", Codes: []string{"X", "Y"}},
				{Name: "TOP_0_5", Codes: []string{"X"}},
			},
		},
	})
	vector := NewVectoriser(m).Vectorise(schema.RawRecord{"PROCEDURE": "x y"})

	assert.Equal(t, float64(2), vector["PROCEDURE_TOP_0_10"])
	assert.Equal(t, float64(1), vector["PROCEDURE_TOP_0_5"])
}

func TestVectoriseLengthOfStay(t *testing.T) {
	v := testVectoriser(t)

	vector := v.Vectorise(schema.RawRecord{"SPELL_LOS": "9", "AGE": "40"})
	assert.Equal(t, float64(9), vector[schema.LengthOfStayField])
	_, ok := vector["SPELL_LOS"]
	assert.False(t, ok, "length of stay must not be emitted under its source name")
}

func TestVectoriseDropsUnknownAndMalformed(t *testing.T) {
	v := testVectoriser(t)
	vector := v.Vectorise(schema.RawRecord{
		"PATIENT_NAME": "jane",
		"BROKEN":       "x",
		"AGE":          "30",
	})

	_, ok := vector["PATIENT_NAME"]
	assert.False(t, ok)
	_, ok = vector["BROKEN"]
	assert.False(t, ok)
	assert.Equal(t, float64(30), vector["AGE"])
	assert.Len(t, vector, 3)
}

func TestVectoriseAll(t *testing.T) {
	v := testVectoriser(t)
	vectors := v.VectoriseAll([]schema.RawRecord{{"AGE": "20"}, {"AGE": "30"}})

	require.Len(t, vectors, 2)
	assert.Equal(t, float64(2), vectors[0]["AGE_CATEGORY"])
	assert.Equal(t, float64(3), vectors[1]["AGE_CATEGORY"])
}
