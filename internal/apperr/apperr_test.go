package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("issue tickets: %w", New(KindOversold, "oversold", "VIP has 1 left"))

	if !errors.Is(err, ErrOversold) {
		t.Fatal("expected errors.Is to match the oversold sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("oversold must not match not-found")
	}
	if KindOf(err) != KindOversold || CodeOf(err) != "oversold" {
		t.Fatalf("KindOf/CodeOf = %q/%q", KindOf(err), CodeOf(err))
	}
}

func TestIsHonoursCode(t *testing.T) {
	err := NotFound("ticket_not_found", "ticket not found")
	if !errors.Is(err, NotFound("ticket_not_found", "")) {
		t.Fatal("same kind and code should match")
	}
	if errors.Is(err, NotFound("order_not_found", "")) {
		t.Fatal("different code should not match")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindGateway, "gateway_unavailable", "momo create failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable")
	}
	if err.Error() != "momo create failed: dial tcp: timeout" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if KindOf(cause) != "" {
		t.Fatal("plain errors have no kind")
	}
}
