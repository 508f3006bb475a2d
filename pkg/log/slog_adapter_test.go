package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, adapter func(*slog.Logger) Logger, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter(slog.New(handler)).Log(event)

	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func debugAdapter(l *slog.Logger) Logger { return NewSlogAdapter(l) }

func TestSlogAdapterStateChange(t *testing.T) {
	entry := logJSON(t, debugAdapter, Event{
		Timestamp:      time.Now(),
		SubscriptionID: "sub-1",
		Kind:           "code-generator",
		Category:       CategoryState,
		StateChange:    &StateChangeEvent{OldState: "CONNECTING", NewState: "CONNECTED", Reason: "advised"},
	})

	checks := map[string]any{
		"level":     "DEBUG",
		"msg":       "subscription",
		"sub_id":    "sub-1",
		"kind":      "code-generator",
		"category":  "STATE",
		"origin":    "CALLER",
		"old_state": "CONNECTING",
		"new_state": "CONNECTED",
		"reason":    "advised",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %v", k, entry[k], want)
		}
	}
}

func TestSlogAdapterNativeCall(t *testing.T) {
	entry := logJSON(t, debugAdapter, Event{
		SubscriptionID: "sub-1",
		Category:       CategoryNative,
		Origin:         OriginCleanup,
		NativeCall:     &NativeCallEvent{Op: NativeOpUnadvise, Handle: 42, Failed: true},
	})

	if entry["op"] != "UNADVISE" {
		t.Errorf("op: got %v", entry["op"])
	}
	if entry["handle"] != float64(42) {
		t.Errorf("handle: got %v", entry["handle"])
	}
	if entry["failed"] != true {
		t.Errorf("failed: got %v", entry["failed"])
	}
	if entry["origin"] != "CLEANUP" {
		t.Errorf("origin: got %v", entry["origin"])
	}
}

func TestSlogAdapterNotificationDropped(t *testing.T) {
	entry := logJSON(t, debugAdapter, Event{
		Category: CategoryNotification,
		Origin:   OriginNative,
		Notification: &NotificationEvent{
			Event:      "after-import",
			Elements:   []string{"g1", "g2", "g3"},
			DropReason: "gate closed",
		},
	})

	if entry["event"] != "after-import" {
		t.Errorf("event: got %v", entry["event"])
	}
	if entry["elements"] != float64(3) {
		t.Errorf("elements: got %v", entry["elements"])
	}
	if entry["delivered"] != false {
		t.Errorf("delivered: got %v", entry["delivered"])
	}
	if entry["drop_reason"] != "gate closed" {
		t.Errorf("drop_reason: got %v", entry["drop_reason"])
	}
}

func TestSlogAdapterErrorAtLevel(t *testing.T) {
	warn := func(l *slog.Logger) Logger { return NewSlogAdapter(l).WithLevel(slog.LevelWarn) }
	entry := logJSON(t, warn, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Op: "connect", Message: "source unavailable", Code: "connection-failed"},
	})

	if entry["level"] != "WARN" {
		t.Errorf("level: got %v", entry["level"])
	}
	if entry["error_op"] != "connect" || entry["error_code"] != "connection-failed" {
		t.Errorf("error attrs: got %v / %v", entry["error_op"], entry["error_code"])
	}
}

func TestSlogAdapterBelowLevelIsSilent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{SubscriptionID: "quiet"})

	if buf.Len() != 0 {
		t.Errorf("debug event should be filtered at info level, got %q", buf.String())
	}
}
