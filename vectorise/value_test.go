package vectorise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertValue(t *testing.T) {
	cases := []struct {
		raw    string
		kind   ValueKind
		number float64
		text   string
	}{
		{"", Absent, 0, ""},
		{"NULL", Absent, 0, ""},
		{"NaN", Absent, 0, ""},
		{"42", Integer, 42, "42"},
		{"007", Integer, 7, "007"},
		{"-3", Float, -3, "-3"},
		{" 12.5 ", Float, 12.5, "12.5"},
		{"Emergency", Text, 0, "emergency"},
		{" Y", Text, 0, " y"},
	}
	for _, c := range cases {
		v := ConvertValue(c.raw)
		assert.Equal(t, c.kind, v.Kind, "kind of %q", c.raw)
		assert.Equal(t, c.number, v.Number, "number of %q", c.raw)
		assert.Equal(t, c.text, v.Text, "text of %q", c.raw)
	}
}

func TestFormatFieldHeader(t *testing.T) {
	assert.Equal(t, "ADMISSION_METHOD", FormatFieldHeader("Admission method"))
	assert.Equal(t, "SPELL_LOS", FormatFieldHeader("spell-los"))
	assert.Equal(t, "WARD_CODE_2", FormatFieldHeader("ward.code 2"))
	assert.Equal(t, "IS_MAJOR", FormatFieldHeader("IS_MAJOR"))
}
