package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	Logf("tick %d", 42)
	if got != "tick 42" {
		t.Errorf("captured %q, want %q", got, "tick 42")
	}
}

func TestSetLoggerNilIsNoOp(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	SetLogger(nil)
	// Must not panic.
	Logf("dropped %s", "message")
}
