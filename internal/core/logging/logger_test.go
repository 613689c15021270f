package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Str("user", "alice").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"user":"alice"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("dropped")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Ctx(context.Background()).Info().Msg("from-global")
	if !strings.Contains(buf.String(), "from-global") {
		t.Fatalf("expected global fallback, got %q", buf.String())
	}

	var scoped bytes.Buffer
	ctx := WithContext(context.Background(), zerolog.New(&scoped))
	Ctx(ctx).Info().Msg("from-ctx")
	if !strings.Contains(scoped.String(), "from-ctx") {
		t.Fatalf("expected scoped logger, got %q", scoped.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWarnsWhenLogDirectoryFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf, File: filepath.Join(blocker, "logs", "app.log")})
	t.Cleanup(func() { Init(Config{}) })

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "Could not create log directory") {
		t.Fatalf("expected warning about log directory, got: %s", out)
	}

	Info().Msg("still logging")
	if !strings.Contains(buf.String(), "still logging") {
		t.Fatalf("logger should keep writing to the primary output: %s", buf.String())
	}
}

func TestInitReplacesContextLoggerPointer(t *testing.T) {
	var first, second bytes.Buffer
	Init(Config{Output: &first})
	t.Cleanup(func() { Init(Config{}) })
	before := zerolog.DefaultContextLogger

	Init(Config{Output: &second})
	after := zerolog.DefaultContextLogger
	if before == after {
		t.Fatal("Init should install a fresh context logger on every call")
	}

	// Pointer lama tetap menulis ke output lamanya.
	before.Info().Msg("old")
	after.Info().Msg("new")
	if !strings.Contains(first.String(), "old") || strings.Contains(first.String(), "new") {
		t.Fatalf("first output = %s", first.String())
	}
	if !strings.Contains(second.String(), "new") {
		t.Fatalf("second output = %s", second.String())
	}
}
