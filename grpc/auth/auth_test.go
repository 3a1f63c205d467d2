package auth

import (
	"context"
	"errors"
	"testing"
)

func TestStaticVerify(t *testing.T) {
	a := New("s3cret")
	caller, err := a.Verify(context.Background(), "s3cret")
	if err != nil || caller != StaticCaller {
		t.Fatalf("Verify() = %q, %v", caller, err)
	}
	if _, err := a.Verify(context.Background(), "guess"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
	if _, err := New("").Verify(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token accepted: %v", err)
	}
}
