package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ltss/ltss-api/schema"
)

// PredictionLogger keeps an audit trail of served predictions
type PredictionLogger interface {
	LogPrediction(ctx context.Context, entry schema.PredictionLog) error
}

// LogPrediction inserts an audit entry, assigning its id and timestamp when
// they are not set
func (m *mongoDB) LogPrediction(ctx context.Context, entry schema.PredictionLog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := m.collection(schema.PredictionCollection).InsertOne(ctx, entry)
	return err
}
