package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestWriteReservedKeysWin(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Warn("conversation.open_blocked", map[string]any{"msg": "spoofed", "session_id": "s1"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "conversation.open_blocked" {
		t.Fatalf("expected msg to be preserved, got %v", entry["msg"])
	}
	if entry["level"] != "warn" || entry["session_id"] != "s1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestWriteUnmarshalableField(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Error("bad", map[string]any{"ch": make(chan int)})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "logger marshal failed" {
		t.Fatalf("expected fallback line, got %v", entry)
	}
}
