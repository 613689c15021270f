package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(NotFound, "User not found")
	err := fmt.Errorf("resolve alice: %w", base)

	if got := KindOf(err); got != NotFound {
		t.Fatalf("KindOf() = %q, want %q", got, NotFound)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to match the sentinel")
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := Wrap(Storage, "Failed to save", errors.New("pq: connection refused"))
	if got := Message(err, "fallback"); got != "Failed to save" {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(errors.New("boom"), "fallback"); got != "fallback" {
		t.Fatalf("Message(plain) = %q", got)
	}
	if err.Error() != "Failed to save: pq: connection refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:    http.StatusBadRequest,
		Conflict:      http.StatusBadRequest,
		Unauthorized:  http.StatusUnauthorized,
		NotFound:      http.StatusNotFound,
		Upstream:      http.StatusBadGateway,
		Configuration: http.StatusInternalServerError,
		Storage:       http.StatusInternalServerError,
		"":            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Fatalf("HTTPStatus(%q) = %d, want %d", kind, got, want)
		}
	}
}
