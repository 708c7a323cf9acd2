package event

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookHook(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := NewWebhookHook("notify", srv.URL, []EventType{MemoryPromoted}, true)
	ev := NewEvent(MemoryPromoted, map[string]interface{}{"from": "a", "to": "b"})
	if err := hook.Handle(ev); err != nil {
		t.Fatal(err)
	}
	if received.Type != MemoryPromoted {
		t.Errorf("received type = %q, want memory.promoted", received.Type)
	}
	if received.Data["from"] != "a" {
		t.Errorf("received data = %v", received.Data)
	}
}

func TestWebhookHook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hook := NewWebhookHook("notify", srv.URL, nil, true)
	if err := hook.Handle(NewEvent(SessionEnded, nil)); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestLogHook(t *testing.T) {
	logger := &warnRecorder{}
	hook := NewLogHook("audit", nil, logger, "warn")

	if err := hook.Handle(NewEvent(MemoryDeleted, map[string]interface{}{"memory_id": "m1"})); err != nil {
		t.Fatal(err)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %d, want 1", len(logger.warns))
	}
}

func TestHookMatches(t *testing.T) {
	filtered := baseHook{events: []EventType{MemoryCreated, MemoryDeduped}}
	if !filtered.Matches(MemoryCreated) || filtered.Matches(SessionStarted) {
		t.Error("filtered hook should match only its listed events")
	}

	unfiltered := baseHook{}
	if !unfiltered.Matches(SessionStarted) {
		t.Error("hook without filter should match everything")
	}
}

func TestFromConfig(t *testing.T) {
	hook, err := FromConfig("n", "shell", "true", "", "", []string{"memory.created"}, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hook.Name() != "n" || hook.IsBlocking() {
		t.Errorf("hook = %+v", hook)
	}

	if _, err := FromConfig("n", "shell", "", "", "", nil, false, nil); err == nil {
		t.Error("shell hook without command should fail")
	}
	if _, err := FromConfig("n", "carrier-pigeon", "", "", "", nil, false, nil); err == nil {
		t.Error("unknown hook type should fail")
	}
}
