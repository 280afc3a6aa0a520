package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(InfoLevel)
	b := Get(DebugLevel)
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
	if a.Named("coordinator") == nil {
		t.Fatalf("Named returned nil")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Infow("nop_logger_used", "k", "v")
	var nilLogger *Logger
	if nilLogger.Named("x") != nil {
		t.Fatalf("Named on nil logger should stay nil")
	}
}
