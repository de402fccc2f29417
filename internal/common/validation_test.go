package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator().
		Field("name", "", Required).
		Field("count", 0, AtLeast(1)).
		Field("mode", "piece_first", OneOf("piece_first", "instrument_only")).
		Field("id", "not-a-uuid", UUID)

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.Contains(t, v.ErrorMessage(), "name")
	assert.Contains(t, v.ErrorMessage(), "count")
	assert.Contains(t, v.ErrorMessage(), "id")
	assert.Error(t, v.Error())
}

func TestRules(t *testing.T) {
	assert.Nil(t, Required("f", "x"))
	assert.NotNil(t, Required("f", nil))
	assert.NotNil(t, Required("f", "   "))

	assert.Nil(t, AtLeast(2)("f", int64(2)))
	assert.NotNil(t, AtLeast(2)("f", "2"))

	assert.Nil(t, OneOf("json", "text")("f", "JSON"))
	assert.NotNil(t, OneOf("json", "text")("f", "yaml"))

	assert.Nil(t, UUID("f", "2f1c1c3e-8a4b-4d3e-9a53-0e2f9b7f6a10"))
	assert.NotNil(t, UUID("f", 42))
}

func TestEmptyValidatorHasNoError(t *testing.T) {
	v := NewValidator()
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.Empty(t, v.ErrorMessage())
}
