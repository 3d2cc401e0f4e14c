package sysutil

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreLogging(t *testing.T) {
	t.Helper()
	lvl, prev, prevCtx, prevFmt := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger, zerolog.TimeFieldFormat
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = prev
		zerolog.DefaultContextLogger = prevCtx
		zerolog.TimeFieldFormat = prevFmt
	})
}

func TestSetLogLevel_AllVariants(t *testing.T) {
	restoreLogging(t)
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestConfigureLogger_JSON(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	ConfigureLogger("warn", false, &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("flow", "gift").Msg("kept")

	// Contexts without a logger use the global one.
	log.Ctx(context.Background()).Error().Msg("from ctx")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %q", buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if m["message"] != "kept" || m["flow"] != "gift" || m["time"] == nil {
		t.Fatalf("line = %v", m)
	}
	if !strings.Contains(lines[1], "from ctx") {
		t.Fatalf("ctx line = %q", lines[1])
	}
}

func TestConfigureLogger_Pretty(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	ConfigureLogger("debug", true, &buf)
	log.Debug().Msg("merhaba")
	out := buf.String()
	if !strings.Contains(out, "merhaba") || strings.HasPrefix(out, "{") {
		t.Fatalf("console output = %q", out)
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Fatal("version must not be empty")
	}
}
