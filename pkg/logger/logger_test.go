package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func withCapturedOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	orig := std
	std = log.New(&buf, "", 0)
	defer func() { std = orig }()
	fn()
	return buf.String()
}

func TestLogLevelFiltering(t *testing.T) {
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	out := withCapturedOutput(t, func() {
		InfoC("test", "should not appear")
		WarnC("test", "should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Fatal("expected info-level log to be filtered out below warn")
	}
	if !strings.Contains(out, "should appear") {
		t.Fatal("expected warn-level log to pass through")
	}
}

func TestLogFieldsAreSortedAndFormatted(t *testing.T) {
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)

	out := withCapturedOutput(t, func() {
		InfoCF("router", "dispatched", map[string]interface{}{"b": 2, "a": 1})
	})

	idxA := strings.Index(out, "a=1")
	idxB := strings.Index(out, "b=2")
	if idxA == -1 || idxB == -1 || idxA > idxB {
		t.Fatalf("expected fields in sorted key order, got: %q", out)
	}
	if !strings.Contains(out, "[router]") {
		t.Fatalf("expected component tag in output, got: %q", out)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{LevelDebug: "DEBUG", LevelInfo: "INFO", LevelWarn: "WARN", LevelError: "ERROR"}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
