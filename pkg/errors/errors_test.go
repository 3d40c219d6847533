package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "could not fetch thumbnail",
			expected: "",
		},
		{
			name:     "wrap sentinel",
			err:      ErrCacheIO,
			msg:      "write temp file",
			expected: "write temp file: cache I/O error",
		},
		{
			name:     "wrap with empty message",
			err:      errors.New("connection reset"),
			msg:      "",
			expected: ": connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "wrapf nil error",
			err:      nil,
			format:   "fetch %s",
			args:     []interface{}{"https://example.com/a.jpg"},
			expected: "",
		},
		{
			name:     "wrapf network error",
			err:      ErrNetwork,
			format:   "unexpected status code: %d",
			args:     []interface{}{404},
			expected: "unexpected status code: 404: network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestSizeErrorReasons(t *testing.T) {
	assert.Equal(t, "Content too large", ErrContentTooLarge.Error())
	assert.Equal(t, "Exceeded max size", ErrExceededMaxSize.Error())
}

func TestDetailHelpers(t *testing.T) {
	err := ErrInvalidLogLevelWithDetails("loud")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
	assert.Contains(t, err.Error(), `"loud"`)

	err = ErrInvalidLogFormatWithDetails("xml")
	assert.ErrorIs(t, err, ErrInvalidLogFormat)
	assert.Contains(t, err.Error(), `"xml"`)

	err = ErrUnknownConfigKeyWithName("colour")
	assert.ErrorIs(t, err, ErrUnknownConfigKey)
	assert.Contains(t, err.Error(), "colour")
}
