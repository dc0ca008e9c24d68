package schema

const (
	// LengthOfStayField is the outcome field, always the last vector entry
	LengthOfStayField = "LENGTH_OF_STAY"
	// IsMajorField flags clinically significant admissions
	IsMajorField = "IS_MAJOR"

	// MissingValue is the sentinel for absent or unmapped numeric values
	MissingValue = -1
)

// RawRecord is one admission record as read from a source, keyed on the
// normalised field header
type RawRecord map[string]string

// Vector is a vectorised record: derived field name to number
type Vector map[string]float64

// TrainingSample pairs a vectorised record with its known length of stay
type TrainingSample struct {
	Vector       Vector
	LengthOfStay int
}
