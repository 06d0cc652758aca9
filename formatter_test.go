package bindcheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platformlab/bindcheck/types"
)

func TestGetResultString(t *testing.T) {
	tests := []struct {
		status   types.CheckStatus
		expected string
	}{
		{types.CheckStatusPass, "✓ pass"},
		{types.CheckStatusSkip, "- skip"},
		{types.CheckStatusFail, "✗ fail"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, getResultString(tt.status))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.235s", formatDuration(1234567*time.Microsecond))
	assert.Equal(t, "0s", formatDuration(200*time.Microsecond))
	assert.Equal(t, "2m0s", formatDuration(2*time.Minute))
}
