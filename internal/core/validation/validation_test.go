package validation

import (
	"strings"
	"testing"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type seasonBody struct {
	Username     string `json:"username" validate:"required"`
	SeasonNumber *int   `json:"season_number" validate:"required,min=0"`
}

func TestStructValid(t *testing.T) {
	if err := Struct(loginBody{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
}

func TestStructUsesJSONNames(t *testing.T) {
	err := Struct(loginBody{})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "username is required") || !strings.Contains(msg, "password is required") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestStructPointerRequired(t *testing.T) {
	zero := 0
	if err := Struct(seasonBody{Username: "alice", SeasonNumber: &zero}); err != nil {
		t.Fatalf("season 0 should be accepted: %v", err)
	}
	err := Struct(seasonBody{Username: "alice"})
	if err == nil || !strings.Contains(err.Error(), "season_number is required") {
		t.Fatalf("expected season_number error, got %v", err)
	}
	neg := -1
	err = Struct(seasonBody{Username: "alice", SeasonNumber: &neg})
	if err == nil || !strings.Contains(err.Error(), "season_number must be at least 0") {
		t.Fatalf("expected min error, got %v", err)
	}
}

func TestGetSingleton(t *testing.T) {
	if Get() != Get() {
		t.Fatal("Get() should return the same instance")
	}
}
