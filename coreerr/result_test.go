package coreerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOk_IsSuccessWithValue(t *testing.T) {
	r := Ok(42)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, 42, r.Value)
	assert.Nil(t, r.Err)
}

func TestFail_IsNotSuccess(t *testing.T) {
	r := Fail[int](New(NotFound, "missing"))
	assert.False(t, r.IsSuccess())
	assert.Equal(t, NotFound, r.Err.Code)
}

func TestError_MessageIncludesCauseWhenWrapped(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "failed to build", cause)
	assert.Contains(t, err.Error(), "failed to build")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_MessageOmitsCauseWhenAbsent(t *testing.T) {
	err := New(InvalidInput, "bad query")
	assert.Equal(t, "invalid_input: bad query", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestNotFoundf_FormatsMessage(t *testing.T) {
	err := NotFoundf("type %q not found", "App.Widget")
	assert.Equal(t, NotFound, err.Code)
	assert.Contains(t, err.Message, "App.Widget")
}
