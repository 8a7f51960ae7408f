package faults

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsWithMarker(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrResourceLoad, "models", "load echo-small", cause)

	if !errors.Is(err, ErrResourceLoad) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	for _, fragment := range []string{"models", "load echo-small", "disk full"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err.Error(), fragment)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrScheduleInvalid, "schedule", "parse", nil)
	if !errors.Is(err, ErrScheduleInvalid) {
		t.Fatalf("marker lost: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "agent", "dispatch", errors.New("boom"))
	if !errors.Is(err, ErrHandler) {
		t.Fatalf("nil marker did not default to ErrHandler: %v", err)
	}
}

func TestWrapEmptyContext(t *testing.T) {
	err := Wrap(ErrHandler, "", "", nil)
	if !strings.Contains(err.Error(), "component failure") {
		t.Fatalf("empty context produced %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrConfiguration, "config", "validate", nil)) {
		t.Fatal("configuration errors must be fatal")
	}
	for _, marker := range []error{ErrResourceLoad, ErrHandler, ErrSamplerUnavailable, ErrScheduleInvalid} {
		if IsFatal(Wrap(marker, "x", "y", nil)) {
			t.Fatalf("%v must not be fatal", marker)
		}
	}
}
