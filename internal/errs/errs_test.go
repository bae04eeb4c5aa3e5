package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindAlreadyClaimed, "user already claimed a voucher")
	if got := KindOf(err); got != KindAlreadyClaimed {
		t.Fatalf("expected %s, got %s", KindAlreadyClaimed, got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("plain error must carry no kind")
	}
	if KindOf(nil) != "" {
		t.Fatal("nil error must carry no kind")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindNotFound, "campaign not found")
	wrapped := fmt.Errorf("loading campaign: %w", inner)

	if !IsKind(wrapped, KindNotFound) {
		t.Fatalf("kind lost through wrapping: %v", wrapped)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDependency, "validator unreachable", cause)

	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if !IsKind(err, KindDependency) {
		t.Fatalf("expected dependency kind, got %s", KindOf(err))
	}
	want := "validator unreachable: connection refused"
	if err.Error() != want {
		t.Fatalf("message %q, want %q", err.Error(), want)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindInvalidState, "campaign is %s and cannot be promoted", "EXPIRED")
	want := "campaign is EXPIRED and cannot be promoted"
	if err.Error() != want {
		t.Fatalf("message %q, want %q", err.Error(), want)
	}
}
