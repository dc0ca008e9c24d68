package vectorise

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/ltss/ltss-api/schema"
)

const mappingTypeKey = "MAPPING_TYPE"

var (
	ErrNoMapping         = errors.New("no mapping for field")
	ErrUnknownTransform  = errors.New("unrecognised transform kind")
	ErrInvalidMapping    = errors.New("invalid vector mapping")
	ErrUnsupportedFormat = errors.New("unsupported mapping file format")
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "vectorise")
}

// Mapping is the vectorisation blueprint: one transform per known field.
// It is immutable once loaded.
type Mapping struct {
	transforms map[string]schema.Transform
}

// NewMapping builds a blueprint from already-constructed transforms
func NewMapping(transforms map[string]schema.Transform) *Mapping {
	m := &Mapping{transforms: make(map[string]schema.Transform, len(transforms))}
	for field, t := range transforms {
		m.transforms[FormatFieldHeader(field)] = t
	}
	return m
}

// LoadMapping reads a blueprint from a .json, .yaml or .yml file. Any
// failure is fatal for the caller: vectorisation cannot run on a partial
// blueprint.
func LoadMapping(path string) (*Mapping, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load vector mapping from %q: %w", path, err)
	}

	m, err := ParseMapping(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("cannot load vector mapping from %q: %w", path, err)
	}

	log.Infof("loaded vector mapping with %d fields from %s", len(m.transforms), path)
	return m, nil
}

// ParseMapping decodes a blueprint document. format is a file extension.
func ParseMapping(data []byte, format string) (*Mapping, error) {
	var raw map[string][]interface{}

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMapping, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMapping, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidMapping)
	}

	transforms := make(map[string]schema.Transform, len(raw))
	for field, items := range raw {
		t, err := parseEntry(items)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if m, ok := t.(schema.MalformedTransform); ok {
			log.Warnf("mapping for field %s is malformed (%s), it will be skipped on vectorisation", field, m.Reason)
		}
		transforms[field] = t
	}

	return NewMapping(transforms), nil
}

// TypeOf returns the transform kind of a field, if the field is mapped
func (m *Mapping) TypeOf(field string) (schema.TransformKind, bool) {
	t, ok := m.transforms[field]
	if !ok {
		return 0, false
	}
	return t.Kind(), true
}

// MappingOf returns the transform, with its payload, of a field
func (m *Mapping) MappingOf(field string) (schema.Transform, error) {
	t, ok := m.transforms[field]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoMapping, field)
	}
	return t, nil
}

// Fields lists the mapped field names in sorted order
func (m *Mapping) Fields() []string {
	fields := make([]string, 0, len(m.transforms))
	for f := range m.transforms {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func parseEntry(items []interface{}) (schema.Transform, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty entry", ErrUnknownTransform)
	}

	literal, ok := kindLiteral(normalise(items[0]))
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTransform, items[0])
	}
	kind, ok := schema.ParseTransformKind(literal)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, literal)
	}

	payload := make([]interface{}, 0, 2)
	for _, item := range items[1:] {
		payload = append(payload, normalise(item))
	}

	switch kind {
	case schema.Copy:
		return schema.CopyTransform{}, nil
	case schema.Binary:
		return schema.BinaryTransform{}, nil
	case schema.LengthOfStay:
		return schema.LengthOfStayTransform{}, nil
	case schema.AgeCategorise:
		return schema.AgeCategoriseTransform{}, nil
	case schema.Categorise:
		if len(payload) < 1 {
			return malformed(kind, "missing category lookup"), nil
		}
		categories, err := categoryTable(payload[0])
		if err != nil {
			return malformed(kind, err.Error()), nil
		}
		return schema.CategoriseTransform{Categories: categories}, nil
	case schema.CodeList:
		if len(payload) < 1 {
			return malformed(kind, "missing code list"), nil
		}
		codes, err := codeList(payload[0])
		if err != nil {
			return malformed(kind, err.Error()), nil
		}
		return schema.CodeListTransform{Codes: codes}, nil
	case schema.TopFrequencyCount:
		if len(payload) < 2 {
			return malformed(kind, "missing code list or frequency buckets"), nil
		}
		codes, err := codeList(payload[0])
		if err != nil {
			return malformed(kind, err.Error()), nil
		}
		buckets, err := bucketTable(payload[1])
		if err != nil {
			return malformed(kind, err.Error()), nil
		}
		return schema.TopFrequencyTransform{Codes: codes, Buckets: buckets}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, literal)
}

func malformed(kind schema.TransformKind, reason string) schema.MalformedTransform {
	return schema.MalformedTransform{Declared: kind, Reason: reason}
}

func kindLiteral(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]interface{}:
		s, ok := t[mappingTypeKey].(string)
		return s, ok
	}
	return "", false
}

func categoryTable(v interface{}) (map[string]int, error) {
	table, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("category lookup is %T, not an object", v)
	}

	categories := make(map[string]int, len(table))
	for key, value := range table {
		n, ok := number(value)
		if !ok || n != math.Trunc(n) {
			return nil, fmt.Errorf("category %q maps to non-integer %v", key, value)
		}
		categories[lower(key)] = int(n)
	}
	return categories, nil
}

func codeList(v interface{}) ([]string, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("code list is %T, not a list", v)
	}

	codes := make([]string, 0, len(list))
	for _, item := range list {
		code, ok := scalarText(item)
		if !ok {
			return nil, fmt.Errorf("code %v is not a scalar", item)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func bucketTable(v interface{}) ([]schema.FrequencyBucket, error) {
	table, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("frequency buckets are %T, not an object", v)
	}

	buckets := make([]schema.FrequencyBucket, 0, len(table))
	for name, codes := range table {
		list, err := codeList(codes)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %s", name, err)
		}
		buckets = append(buckets, schema.FrequencyBucket{Name: name, Codes: list})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func scalarText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// normalise turns the map[interface{}]interface{} values produced by yaml.v2
// into the map[string]interface{} shape encoding/json produces
func normalise(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, value := range t {
			out[fmt.Sprint(k)] = normalise(value)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, value := range t {
			out[k] = normalise(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, value := range t {
			out[i] = normalise(value)
		}
		return out
	}
	return v
}
