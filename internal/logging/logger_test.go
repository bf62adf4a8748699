package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Error().Str("table", "sale").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("Expected JSON output, got: %s", lines[0])
	}
	if entry["message"] != "shown" {
		t.Errorf("Expected message 'shown', got '%v'", entry["message"])
	}
	if entry["table"] != "sale" {
		t.Errorf("Expected table 'sale', got '%v'", entry["table"])
	}
}

func TestInitInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "chatty", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("hidden")
	Info().Msg("shown")

	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Errorf("Expected invalid level to fall back to info, got: %s", buf.String())
	}
}

func TestStage(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	log := Stage("prepare")
	log.Info().Msg("x")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected JSON output, got: %s", buf.String())
	}
	if entry["component"] != "prepare" {
		t.Errorf("Expected component 'prepare', got '%v'", entry["component"])
	}
}

func TestStageStepField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	log := Stage("prepare")
	log.Info().Str("stage", "detect").Msg("Stage complete")

	if n := bytes.Count(buf.Bytes(), []byte(`"stage"`)); n != 1 {
		t.Errorf("Expected a single stage field, got %d: %s", n, buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected JSON output, got: %s", buf.String())
	}
	if entry["component"] != "prepare" || entry["stage"] != "detect" {
		t.Errorf("Expected component 'prepare' and stage 'detect', got %v", entry)
	}
}
