package schema

import "time"

const (
	// RiskBands is the number of risk stratification bands
	RiskBands = 5

	PredictionCollection = "prediction"
)

// BandDistribution is probability mass apportioned over the five risk bands
type BandDistribution [RiskBands]float64

// FactorRisk is the risk contributed by a single selector
type FactorRisk struct {
	Selector         string           `json:"selector"`
	Day              float64          `json:"day"`
	RiskBand         int              `json:"risk"`
	BandDistribution BandDistribution `json:"risk_pdf"`
}

// RiskProfile is the aggregated risk across all contributing factors
type RiskProfile struct {
	RiskBand         int
	BandDistribution BandDistribution
	RiskByFactor     map[string]int
	Factors          []FactorRisk
	DominantFactor   *string
}

// Prediction is the risk engine's answer for one record
type Prediction struct {
	RiskStratification    int            `json:"RISK_STRATIFICATION" bson:"risk_stratification"`
	RiskCatProbGeneral1   float64        `json:"RISK_CAT_PROB_GENERAL_1" bson:"risk_cat_prob_general_1"`
	RiskCatProbGeneral2   float64        `json:"RISK_CAT_PROB_GENERAL_2" bson:"risk_cat_prob_general_2"`
	RiskCatProbGeneral3   float64        `json:"RISK_CAT_PROB_GENERAL_3" bson:"risk_cat_prob_general_3"`
	RiskCatProbGeneral4   float64        `json:"RISK_CAT_PROB_GENERAL_4" bson:"risk_cat_prob_general_4"`
	RiskCatProbGeneral5   float64        `json:"RISK_CAT_PROB_GENERAL_5" bson:"risk_cat_prob_general_5"`
	BiggestRiskFactor     *string        `json:"BIGGEST_RISK_FACTOR" bson:"biggest_risk_factor"`
	RiskByCategory        map[string]int `json:"RISK_BY_CATEGORY" bson:"risk_by_category"`
	PercentageRiskCat     int            `json:"PERCENTAGE_RISK_CAT" bson:"percentage_risk_cat"`
	MotDays               int            `json:"MOT_DAYS" bson:"mot_days"`
	PredictedLengthOfStay *float64       `json:"PREDICTED_LOS,omitempty" bson:"predicted_los,omitempty"`
}

// PredictionLog is an audit entry of a served prediction. It never holds raw
// record fields.
type PredictionLog struct {
	ID            string     `bson:"id"`
	RecordID      string     `bson:"record_id,omitempty"`
	Confidence    float64    `bson:"confidence"`
	BundleVersion int64      `bson:"bundle_version"`
	Prediction    Prediction `bson:"prediction"`
	Timestamp     time.Time  `bson:"ts"`
}
