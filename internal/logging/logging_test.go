package logging

import "testing"

func TestLogLevelString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestSetAndGetLevel(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("GetLevel() = %v, want error", GetLevel())
	}

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() should be true at debug level")
	}

	SetLevel(LevelInfo)
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() should be false at info level")
	}
}

func TestLevelOrdering(t *testing.T) {
	t.Parallel()

	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Error("Log levels must be ordered debug < info < warn < error")
	}
}
