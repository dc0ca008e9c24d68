package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/ltss/ltss-api/dataset"
	"github.com/ltss/ltss-api/risk"
	"github.com/ltss/ltss-api/schema"
)

// confidence reads the confidence query parameter, defaulting to the
// configured risk.confidence
func (s *Server) confidence(c *gin.Context) (float64, bool) {
	confidence := viper.GetFloat64("risk.confidence")
	if confidence == 0 {
		confidence = risk.DefaultConfidence
	}

	if q := c.Query("confidence"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			abortWithEncoding(c, http.StatusBadRequest, errorInvalidConfidence, err)
			return 0, false
		}
		confidence = v
	}

	if confidence <= 0 || confidence >= 1 {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidConfidence)
		return 0, false
	}
	return confidence, true
}

// bindRawRecord reads a flat JSON object of raw field values
func bindRawRecord(c *gin.Context) (schema.RawRecord, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return nil, false
	}

	record := make(schema.RawRecord, len(body))
	for field, value := range body {
		switch v := value.(type) {
		case nil:
			record[field] = "null"
		case string:
			record[field] = v
		case float64:
			record[field] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				record[field] = "Y"
			} else {
				record[field] = "N"
			}
		default:
			abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, fmt.Errorf("field %s is not a scalar", field))
			return nil, false
		}
	}
	return record, true
}

func (s *Server) vectorise(c *gin.Context) {
	record, ok := bindRawRecord(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.vectoriser.Vectorise(record))
}

func (s *Server) predict(c *gin.Context) {
	confidence, ok := s.confidence(c)
	if !ok {
		return
	}

	record, ok := bindRawRecord(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.runPrediction(c, record, confidence, c.Query("record_id")))
}

const minorForecastMessage = "no predictions are issued for non-major cases"

// forecast wraps the prediction for the frontend and declines minor records
// without running the models
func (s *Server) forecast(c *gin.Context) {
	confidence, ok := s.confidence(c)
	if !ok {
		return
	}

	record, ok := bindRawRecord(c)
	if !ok {
		return
	}

	if risk.IsMinor(s.vectoriser.Vectorise(record)) {
		s.metrics.Counter("minor_records").Inc(1)
		c.JSON(http.StatusOK, gin.H{
			"forecast": false,
			"msg":      minorForecastMessage,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forecast": true,
		"results":  s.runPrediction(c, record, confidence, c.Query("record_id")),
	})
}

// runPrediction vectorises a record and runs the risk model, adding the
// external point prediction when the predictor answers
func (s *Server) runPrediction(c *gin.Context, record schema.RawRecord, confidence float64, recordID string) schema.Prediction {
	stopwatch := s.metrics.Timer("predict_latency").Start()
	defer stopwatch.Stop()

	vector := s.vectoriser.Vectorise(record)
	if risk.IsMinor(vector) {
		s.metrics.Counter("minor_records").Inc(1)
	}

	externalDay := s.externalDay(c.Request.Context(), vector)
	prediction := s.model.Predict(vector, confidence, externalDay)
	s.metrics.Counter("predictions").Inc(1)

	s.audit(recordID, confidence, prediction)
	return prediction
}

func (s *Server) externalDay(ctx context.Context, vector schema.Vector) *float64 {
	if s.losPredictor == nil {
		return nil
	}

	input, err := dataset.ReshapeVector(vector, s.model.Selectors())
	if err != nil {
		log.WithError(err).Error("cannot shape vector for the point predictor")
		s.metrics.Counter("predictor_errors").Inc(1)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.predictorTimeout())
	defer cancel()

	day, err := s.losPredictor.Predict(ctx, input)
	if err != nil {
		log.WithError(err).Warn("point predictor failed, continuing without it")
		s.metrics.Counter("predictor_errors").Inc(1)
		return nil
	}
	return &day
}

// audit logs the prediction in the background when a store is configured
func (s *Server) audit(recordID string, confidence float64, prediction schema.Prediction) {
	if s.mongoStore == nil {
		return
	}

	entry := schema.PredictionLog{
		RecordID:      recordID,
		Confidence:    confidence,
		BundleVersion: s.bundleVersion,
		Prediction:    prediction,
		Timestamp:     time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		if err := s.mongoStore.LogPrediction(ctx, entry); err != nil {
			log.WithError(err).Error("cannot log prediction")
		}
	}()
}
