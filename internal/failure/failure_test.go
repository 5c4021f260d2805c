package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_UnwrapsChain(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("persist: %w", Wrap(KindPersistence, base, "insert record"))

	if got := KindOf(err); got != KindPersistence {
		t.Fatalf("expected %q, got %q", KindPersistence, got)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to stay reachable")
	}
}

func TestKindOf_UntaggedIsInternal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected internal, got %q", got)
	}
}

func TestWrap_NilIsNil(t *testing.T) {
	if err := Wrap(KindPublish, nil, "x"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if Is(nil, KindPublish) {
		t.Fatalf("nil error must not match a kind")
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindPollTimeout, "call %s not completed after %d attempts", "c1", 3)
	want := "poll_timeout: call c1 not completed after 3 attempts"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
