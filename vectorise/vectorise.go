package vectorise

import (
	"sort"
	"strings"

	"github.com/ltss/ltss-api/schema"
)

const (
	codeInfix      = "_CODE_"
	categorySuffix = "_CATEGORY"
)

// Vectoriser turns raw records into numeric vectors using a blueprint. It
// holds no mutable state and can be shared between goroutines.
type Vectoriser struct {
	mapping *Mapping
}

func NewVectoriser(m *Mapping) *Vectoriser {
	return &Vectoriser{mapping: m}
}

// Mapping returns the blueprint the vectoriser was built with
func (v *Vectoriser) Mapping() *Mapping {
	return v.mapping
}

// VectoriseAll vectorises each record in order
func (v *Vectoriser) VectoriseAll(records []schema.RawRecord) []schema.Vector {
	vectors := make([]schema.Vector, 0, len(records))
	for _, r := range records {
		vectors = append(vectors, v.Vectorise(r))
	}
	return vectors
}

// Vectorise converts one raw record. Fields without a mapping are dropped and
// the length of stay is always emitted, -1 when the record has none.
func (v *Vectoriser) Vectorise(record schema.RawRecord) schema.Vector {
	vector := schema.Vector{}
	lengthOfStay := float64(schema.MissingValue)

	fields := make([]string, 0, len(record))
	for f := range record {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		field := FormatFieldHeader(f)
		value := ConvertValue(record[f])

		t, err := v.mapping.MappingOf(field)
		if err != nil {
			continue
		}

		switch t := t.(type) {
		case schema.CopyTransform:
			vector[field] = copyValue(value)
		case schema.BinaryTransform:
			vector[field] = binarise(value)
		case schema.AgeCategoriseTransform:
			age, category := categoriseAge(value)
			vector[field] = age
			vector[field+categorySuffix] = category
		case schema.CategoriseTransform:
			vector[field] = categorise(value, t.Categories)
		case schema.LengthOfStayTransform:
			if value.IsNumeric() {
				lengthOfStay = value.Number
			} else {
				lengthOfStay = schema.MissingValue
			}
		case schema.CodeListTransform:
			expandCodes(vector, field, value, t.Codes)
		case schema.TopFrequencyTransform:
			expandCodes(vector, field, value, t.Codes)
			countBuckets(vector, field, value, t.Buckets)
		case schema.MalformedTransform:
			log.Errorf("mapping object is not valid for field %s (%s), cannot vectorise value %q", field, t.Reason, value.Text)
		}
	}

	vector[schema.LengthOfStayField] = lengthOfStay
	return vector
}

func copyValue(value Value) float64 {
	if value.Kind == Text {
		value = ConvertValue(strings.TrimSpace(value.Text))
	}
	if !value.IsNumeric() {
		return schema.MissingValue
	}
	return value.Number
}

func binarise(value Value) float64 {
	if value.Kind == Text && upper(strings.TrimSpace(value.Text)) == "Y" {
		return 1
	}
	return 0
}

func categoriseAge(value Value) (float64, float64) {
	if !value.IsNumeric() {
		return schema.MissingValue, schema.MissingValue
	}
	return value.Number, float64(int(value.Number) / 10)
}

func categorise(value Value, categories map[string]int) float64 {
	if value.Kind == Absent {
		return schema.MissingValue
	}
	if n, ok := categories[strings.TrimSpace(value.Text)]; ok {
		return float64(n)
	}
	return schema.MissingValue
}

// recordedCodes splits a code field on commas, or on whitespace when there
// is no comma, dropping empty and "null" entries
func recordedCodes(value Value) []string {
	if value.Kind == Absent {
		return nil
	}

	var parts []string
	if strings.Contains(value.Text, ",") {
		parts = strings.Split(value.Text, ",")
	} else {
		parts = strings.Fields(value.Text)
	}

	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		code := strings.Trim(p, "; \t\r\n")
		if code == "" || lower(code) == "null" {
			continue
		}
		codes = append(codes, upper(code))
	}
	return codes
}

func expandCodes(vector schema.Vector, field string, value Value, codes []string) {
	known := make(map[string]string, len(codes))
	for _, c := range codes {
		code := upper(strings.TrimSpace(c))
		key := field + codeInfix + code
		known[code] = key
		vector[key] = 0
	}

	for _, code := range recordedCodes(value) {
		if key, ok := known[code]; ok {
			vector[key] = 1
		}
	}
}

func countBuckets(vector schema.Vector, field string, value Value, buckets []schema.FrequencyBucket) {
	recorded := recordedCodes(value)
	for _, b := range buckets {
		members := make(map[string]struct{}, len(b.Codes))
		for _, c := range b.Codes {
			members[upper(strings.TrimSpace(c))] = struct{}{}
		}

		count := 0
		for _, code := range recorded {
			if _, ok := members[code]; ok {
				count++
			}
		}
		vector[field+"_"+b.Name] = float64(count)
	}
}
