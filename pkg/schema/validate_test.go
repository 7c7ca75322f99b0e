package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"title":    String(),
		"index":    Int(),
		"done":     Bool(),
		"tags":     Slice(String()),
		"checks":   Map(Bool()),
		"readings": Slice(Object(Schema{"title": String(), "notes": Optional(String())})),
	}

	data := map[string]any{
		"title":    "Essay",
		"index":    float64(2),
		"done":     true,
		"tags":     []any{"a", "b"},
		"checks":   map[string]any{"x": true},
		"readings": []any{map[string]any{"title": "Book"}},
	}

	assert.NoError(t, Validate(s, data))
}

func TestValidate_MissingRequiredField(t *testing.T) {
	s := Schema{
		"title": String(),
		"notes": Optional(String()),
	}

	err := Validate(s, map[string]any{})
	require.Error(t, err)

	errs := ValidationErrors(err)
	require.Len(t, errs, 1)

	var vErr *ValidationError
	require.True(t, errors.As(errs[0], &vErr))
	assert.Equal(t, "title", vErr.Key)
	assert.Equal(t, "required", vErr.Reason)
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := Schema{
		"index": Int(),
		"tags":  Slice(String()),
	}

	err := Validate(s, map[string]any{
		"index": 1.5,
		"tags":  []any{"ok", 3.0},
	})
	require.Error(t, err)
	assert.Len(t, ValidationErrors(err), 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate_NestedObject(t *testing.T) {
	s := Schema{
		"entry": Object(Schema{"paragraphIndex": Int()}),
	}

	err := Validate(s, map[string]any{"entry": map[string]any{"paragraphIndex": "zero"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paragraphIndex")
}

func TestSlice_AcceptsNull(t *testing.T) {
	assert.NoError(t, Slice(String()).Validate(nil))
}
