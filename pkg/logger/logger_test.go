package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONWithServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Service: "reservations"})

	log.Component("expirator").Info("sweep completed", "expired", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[SERVICE] != "reservations" {
		t.Errorf("service = %v, want reservations", entry[SERVICE])
	}
	if entry[COMPONENT] != "expirator" {
		t.Errorf("component = %v, want expirator", entry[COMPONENT])
	}
	if entry["expired"] != float64(2) {
		t.Errorf("expired = %v, want 2", entry["expired"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Level: WARN, Format: TEXT})

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %s", out)
	}
}
