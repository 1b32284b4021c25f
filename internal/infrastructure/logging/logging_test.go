package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew_EmitsStableKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Service: "lendingd", Env: "test"})
	logger.Warn("sweep finished", "liquidated", 1)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %v (%s)", err, buf.String())
	}
	for _, k := range []string{"timestamp", "severity", "message", "service", "env", "liquidated"} {
		if _, ok := line[k]; !ok {
			t.Errorf("missing key %q in %v", k, line)
		}
	}
	if line["severity"] != "WARN" {
		t.Errorf("severity = %v, want WARN", line["severity"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
