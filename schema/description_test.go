package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIFieldsKeepFileOrder(t *testing.T) {
	var d DataDescription
	err := json.Unmarshal([]byte(`{
		"Model_Selectors": ["AGE_CATEGORY"],
		"UI_Fields": {"Zeta": ["A"], "Alpha": ["B", "C"], "Mid": []}
	}`), &d)
	require.NoError(t, err)

	require.Len(t, d.UIFields, 3)
	assert.Equal(t, "Zeta", d.UIFields[0].Name)
	assert.Equal(t, "Alpha", d.UIFields[1].Name)
	assert.Equal(t, []string{"B", "C"}, d.UIFields[1].Fields)
	assert.Equal(t, "Mid", d.UIFields[2].Name)

	data, err := json.Marshal(d.UIFields)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":["A"],"Alpha":["B","C"],"Mid":[]}`, string(data))
}

func TestUIFieldsNullAndInvalid(t *testing.T) {
	var d DataDescription
	require.NoError(t, json.Unmarshal([]byte(`{"UI_Fields": null}`), &d))
	assert.Nil(t, d.UIFields)

	assert.Error(t, json.Unmarshal([]byte(`{"UI_Fields": ["A"]}`), &d))
}
