package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"

	"github.com/ltss/ltss-api/api/mocks"
	"github.com/ltss/ltss-api/dataset"
	extmocks "github.com/ltss/ltss-api/external/mocks"
	"github.com/ltss/ltss-api/schema"
)

const emergencyRecord = `{"Age": 67, "Admission method": "emergency", "IS_MAJOR": true}`

func counterValue(scope tally.TestScope, name string) int64 {
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name {
			return c.Value()
		}
	}
	return 0
}

func decodePrediction(t *testing.T, body []byte) schema.Prediction {
	var p schema.Prediction
	require.NoError(t, json.Unmarshal(body, &p), "wrong json unmarshal")
	return p
}

func TestVectorise(t *testing.T) {
	w := serve(newTestServer(t, nil, nil, nil), "POST", "/api/vectorise", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	var vector schema.Vector
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vector), "wrong json unmarshal")
	assert.Equal(t, schema.Vector{
		"AGE":              67,
		"AGE_CATEGORY":     6,
		"ADMISSION_METHOD": 1,
		"IS_MAJOR":         1,
		"LENGTH_OF_STAY":   -1,
	}, vector)
}

func TestVectoriseNullAndFalse(t *testing.T) {
	w := serve(newTestServer(t, nil, nil, nil), "POST", "/api/vectorise", `{"AGE": null, "IS_MAJOR": false}`)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	var vector schema.Vector
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vector), "wrong json unmarshal")
	assert.Equal(t, float64(-1), vector["AGE"])
	assert.Equal(t, float64(-1), vector["AGE_CATEGORY"])
	assert.Equal(t, float64(0), vector["IS_MAJOR"])
}

func TestVectoriseBadBody(t *testing.T) {
	s := newTestServer(t, nil, nil, nil)

	w := serve(s, "POST", "/api/vectorise", `{"AGE": `)
	assert.Equal(t, http.StatusBadRequest, w.Code, "wrong status code")
	assert.Equal(t, int64(1011), errorCode(t, w))

	w = serve(s, "POST", "/api/vectorise", `{"AGE": {"years": 67}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "wrong status code")
	assert.Equal(t, int64(1010), errorCode(t, w))
}

func TestPredict(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	w := serve(newTestServer(t, nil, nil, scope), "POST", "/api/predict", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	p := decodePrediction(t, w.Body.Bytes())
	assert.Equal(t, 2, p.RiskStratification)
	assert.Equal(t, 9, p.MotDays)
	assert.Equal(t, 2, p.PercentageRiskCat)
	assert.Equal(t, map[string]int{"AGE_CATEGORY": 2, "ADMISSION_METHOD": 2}, p.RiskByCategory)
	assert.InDelta(t, 1, p.RiskCatProbGeneral2, 1e-9)
	assert.InDelta(t, 0, p.RiskCatProbGeneral5, 1e-9)
	assert.Nil(t, p.BiggestRiskFactor)
	assert.Nil(t, p.PredictedLengthOfStay)

	assert.Equal(t, int64(1), counterValue(scope, "predictions"))
	assert.Equal(t, int64(0), counterValue(scope, "minor_records"))
}

func TestPredictContractFields(t *testing.T) {
	w := serve(newTestServer(t, nil, nil, nil), "POST", "/api/predict", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields), "wrong json unmarshal")
	for _, k := range []string{
		"RISK_STRATIFICATION",
		"RISK_CAT_PROB_GENERAL_1",
		"RISK_CAT_PROB_GENERAL_2",
		"RISK_CAT_PROB_GENERAL_3",
		"RISK_CAT_PROB_GENERAL_4",
		"RISK_CAT_PROB_GENERAL_5",
		"BIGGEST_RISK_FACTOR",
		"RISK_BY_CATEGORY",
		"PERCENTAGE_RISK_CAT",
		"MOT_DAYS",
	} {
		assert.Contains(t, fields, k)
	}
	assert.NotContains(t, fields, "PREDICTED_LOS")
}

func TestPredictMinorRecord(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	w := serve(newTestServer(t, nil, nil, scope), "POST", "/api/predict", `{"Age": 67, "IS_MAJOR": "N"}`)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	p := decodePrediction(t, w.Body.Bytes())
	assert.Equal(t, 0, p.MotDays)
	assert.Equal(t, int64(1), counterValue(scope, "minor_records"))
}

func TestPredictWithPredictor(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	input := make([]float64, dataset.ModelInputSize)
	input[0] = 6 * dataset.VectorScale
	input[1] = 1 * dataset.VectorScale

	p := extmocks.NewMockLoSPredictor(ctl)
	p.EXPECT().Predict(gomock.Any(), input).Return(20.0, nil).Times(1)

	scope := tally.NewTestScope("", nil)
	w := serve(newTestServer(t, nil, p, scope), "POST", "/api/predict", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	prediction := decodePrediction(t, w.Body.Bytes())
	assert.Equal(t, 5, prediction.RiskStratification)
	require.NotNil(t, prediction.PredictedLengthOfStay)
	assert.Equal(t, 20.0, *prediction.PredictedLengthOfStay)
	// the percentage follows the distribution band
	assert.Equal(t, 2, prediction.PercentageRiskCat)
	assert.Equal(t, int64(0), counterValue(scope, "predictor_errors"))
}

func TestPredictToleratesPredictorFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p := extmocks.NewMockLoSPredictor(ctl)
	p.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(0.0, errors.New("connection refused")).Times(1)

	scope := tally.NewTestScope("", nil)
	w := serve(newTestServer(t, nil, p, scope), "POST", "/api/predict", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	prediction := decodePrediction(t, w.Body.Bytes())
	assert.Equal(t, 2, prediction.RiskStratification)
	assert.Nil(t, prediction.PredictedLengthOfStay)
	assert.Equal(t, int64(1), counterValue(scope, "predictor_errors"))
}

func TestPredictConfidence(t *testing.T) {
	s := newTestServer(t, nil, nil, nil)

	for _, q := range []string{"abc", "0", "1", "1.5", "-0.2"} {
		w := serve(s, "POST", "/api/predict?confidence="+q, emergencyRecord)
		assert.Equal(t, http.StatusBadRequest, w.Code, "wrong status code for %s", q)
		assert.Equal(t, int64(1012), errorCode(t, w))
	}

	w := serve(s, "POST", "/api/predict?confidence=0.5", emergencyRecord)
	assert.Equal(t, http.StatusOK, w.Code, "wrong status code")
}

func TestPredictConfiguredConfidence(t *testing.T) {
	viper.Set("risk.confidence", 2.0)
	defer viper.Set("risk.confidence", nil)

	w := serve(newTestServer(t, nil, nil, nil), "POST", "/api/predict", emergencyRecord)
	assert.Equal(t, http.StatusBadRequest, w.Code, "wrong status code")
	assert.Equal(t, int64(1012), errorCode(t, w))
}

func TestPredictIsAudited(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	done := make(chan schema.PredictionLog, 1)
	m := mocks.NewMockMongoStore(ctl)
	m.EXPECT().LogPrediction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry schema.PredictionLog) error {
			done <- entry
			return nil
		}).Times(1)

	w := serve(newTestServer(t, m, nil, nil), "POST", "/api/predict?record_id=7&confidence=0.9", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	select {
	case entry := <-done:
		assert.Equal(t, "7", entry.RecordID)
		assert.Equal(t, 0.9, entry.Confidence)
		assert.Equal(t, int64(4), entry.BundleVersion)
		assert.Equal(t, 2, entry.Prediction.RiskStratification)
	case <-time.After(time.Second):
		t.Fatal("prediction was not logged")
	}
}

func TestForecast(t *testing.T) {
	w := serve(newTestServer(t, nil, nil, nil), "POST", "/api/forecast", emergencyRecord)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	var resp struct {
		Forecast bool              `json:"forecast"`
		Results  schema.Prediction `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "wrong json unmarshal")
	assert.True(t, resp.Forecast)
	assert.Equal(t, 2, resp.Results.RiskStratification)
	assert.Equal(t, 9, resp.Results.MotDays)
}

func TestForecastDeclinesMinorRecord(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// neither the predictor nor the audit log is reached
	p := extmocks.NewMockLoSPredictor(ctl)
	m := mocks.NewMockMongoStore(ctl)

	scope := tally.NewTestScope("", nil)
	w := serve(newTestServer(t, m, p, scope), "POST", "/api/forecast", `{"Age": 67, "IS_MAJOR": false}`)
	require.Equal(t, http.StatusOK, w.Code, "wrong status code")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "wrong json unmarshal")
	assert.Equal(t, false, resp["forecast"])
	assert.Equal(t, minorForecastMessage, resp["msg"])
	assert.NotContains(t, resp, "results")
	assert.Equal(t, int64(1), counterValue(scope, "minor_records"))
	assert.Equal(t, int64(0), counterValue(scope, "predictions"))
}
