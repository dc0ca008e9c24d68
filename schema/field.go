package schema

import (
	"fmt"
	"strings"
)

// TransformKind names how a record field is turned into vector entries
type TransformKind int

const (
	Copy TransformKind = iota + 1
	Binary
	Categorise
	CodeList
	TopFrequencyCount
	LengthOfStay
	AgeCategorise
)

var transformKindNames = map[TransformKind]string{
	Copy:              "COPY",
	Binary:            "BINARY",
	Categorise:        "CATEGORISE",
	CodeList:          "CODE_LIST",
	TopFrequencyCount: "TOP_FREQUENCY_COUNT",
	LengthOfStay:      "LENGTH_OF_STAY",
	AgeCategorise:     "AGE_CATEGORISE",
}

func (k TransformKind) String() string {
	if name, ok := transformKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TransformKind(%d)", int(k))
}

// ParseTransformKind accepts both the bare literal ("COPY") and the
// enum-qualified form ("Field.COPY"), case-insensitively.
func ParseTransformKind(literal string) (TransformKind, bool) {
	name := strings.ToUpper(strings.TrimSpace(literal))
	if i := strings.LastIndex(name, "."); i >= 0 {
		if name[:i] != "FIELD" {
			return 0, false
		}
		name = name[i+1:]
	}
	for kind, n := range transformKindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// Transform is the closed set of per-field transforms. Each variant carries
// exactly the payload its kind needs.
type Transform interface {
	Kind() TransformKind
	isTransform()
}

type CopyTransform struct{}

type BinaryTransform struct{}

type LengthOfStayTransform struct{}

type AgeCategoriseTransform struct{}

// CategoriseTransform maps a raw category value to an integer
type CategoriseTransform struct {
	Categories map[string]int
}

// CodeListTransform holds the exhaustive set of recognised codes
type CodeListTransform struct {
	Codes []string
}

// FrequencyBucket is one named group of codes, e.g. TOP_0_10
type FrequencyBucket struct {
	Name  string
	Codes []string
}

// TopFrequencyTransform expands codes like CodeListTransform and also counts
// codes per frequency bucket
type TopFrequencyTransform struct {
	Codes   []string
	Buckets []FrequencyBucket
}

// MalformedTransform is a blueprint entry whose kind is known but whose
// payload does not have the shape that kind needs.
type MalformedTransform struct {
	Declared TransformKind
	Reason   string
}

func (CopyTransform) Kind() TransformKind          { return Copy }
func (BinaryTransform) Kind() TransformKind        { return Binary }
func (LengthOfStayTransform) Kind() TransformKind  { return LengthOfStay }
func (AgeCategoriseTransform) Kind() TransformKind { return AgeCategorise }
func (CategoriseTransform) Kind() TransformKind    { return Categorise }
func (CodeListTransform) Kind() TransformKind      { return CodeList }
func (TopFrequencyTransform) Kind() TransformKind  { return TopFrequencyCount }
func (m MalformedTransform) Kind() TransformKind   { return m.Declared }

func (CopyTransform) isTransform()          {}
func (BinaryTransform) isTransform()        {}
func (LengthOfStayTransform) isTransform()  {}
func (AgeCategoriseTransform) isTransform() {}
func (CategoriseTransform) isTransform()    {}
func (CodeListTransform) isTransform()      {}
func (TopFrequencyTransform) isTransform()  {}
func (MalformedTransform) isTransform()     {}
