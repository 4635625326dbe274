package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"development", "", zerolog.DebugLevel},
		{"production", "", zerolog.InfoLevel},
		{"test", "", zerolog.WarnLevel},
		{"production", "debug", zerolog.DebugLevel},
		{"development", "error", zerolog.ErrorLevel},
		{"production", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, levelFor(tt.env, tt.level))
		})
	}
}

func TestNewWithLevel_SetsGlobalLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	l := NewWithLevel("production", "warn")
	assert.NotNil(t, l)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
