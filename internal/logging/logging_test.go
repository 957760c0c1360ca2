package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New("loud")
	assert.Error(t, err)
	assert.Panics(t, func() { Must("loud") })
}
