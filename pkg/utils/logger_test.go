package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		debug     bool
		wantDebug bool
	}{
		{true, true},
		{false, false},
	}
	for _, tt := range tests {
		logger, err := NewLogger(tt.debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", tt.debug, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
			t.Errorf("NewLogger(%v): debug enabled = %v, want %v", tt.debug, got, tt.wantDebug)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("NewLogger(%v): info disabled", tt.debug)
		}
		_ = logger.Sync()
	}
}
