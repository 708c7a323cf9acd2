package event

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingHook captures events it handles.
type recordingHook struct {
	baseHook
	mu     sync.Mutex
	events []Event
	err    error
}

func newRecordingHook(name string, events []EventType, blocking bool) *recordingHook {
	return &recordingHook{baseHook: baseHook{name: name, events: events, blocking: blocking}}
}

func (h *recordingHook) Handle(ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.err
}

func (h *recordingHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestBus_EmitToMatchingHooks(t *testing.T) {
	bus := NewBus(nil)
	created := newRecordingHook("created-only", []EventType{MemoryCreated}, true)
	all := newRecordingHook("all", nil, true)
	bus.Register(created)
	bus.Register(all)

	if err := bus.Emit(NewEvent(MemoryCreated, map[string]interface{}{"memory_id": "m1"})); err != nil {
		t.Fatal(err)
	}
	if err := bus.Emit(NewEvent(SessionEnded, nil)); err != nil {
		t.Fatal(err)
	}

	if created.count() != 1 {
		t.Errorf("filtered hook handled %d events, want 1", created.count())
	}
	if all.count() != 2 {
		t.Errorf("unfiltered hook handled %d events, want 2", all.count())
	}
}

func TestBus_BlockingHookErrorPropagates(t *testing.T) {
	bus := NewBus(nil)
	failing := newRecordingHook("gate", nil, true)
	failing.err = fmt.Errorf("rejected")
	bus.Register(failing)

	err := bus.Emit(NewEvent(MemoryPromoted, nil))
	if err == nil {
		t.Fatal("expected blocking hook error")
	}
}

func TestBus_NonBlockingHookErrorSwallowed(t *testing.T) {
	logger := &warnRecorder{}
	bus := NewBus(logger)
	failing := newRecordingHook("notifier", nil, false)
	failing.err = fmt.Errorf("unreachable")
	bus.Register(failing)

	if err := bus.Emit(NewEvent(SessionStarted, nil)); err != nil {
		t.Fatalf("non-blocking failure should not propagate: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for failing.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if failing.count() != 1 {
		t.Error("non-blocking hook should still run")
	}
}

func TestBus_Disabled(t *testing.T) {
	bus := NewBus(nil)
	hook := newRecordingHook("h", nil, true)
	bus.Register(hook)
	bus.SetEnabled(false)

	if err := bus.Emit(NewEvent(MemoryCreated, nil)); err != nil {
		t.Fatal(err)
	}
	if hook.count() != 0 {
		t.Error("disabled bus should not dispatch")
	}
}

func TestBus_NilSafe(t *testing.T) {
	var bus *Bus
	bus.Register(newRecordingHook("h", nil, true))
	bus.SetEnabled(true)
	if err := bus.Emit(NewEvent(MemoryCreated, nil)); err != nil {
		t.Errorf("nil bus emit should be a no-op: %v", err)
	}
}

type warnRecorder struct {
	mu    sync.Mutex
	warns []string
}

func (w *warnRecorder) Warn(msg string, keyvals ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warns = append(w.warns, msg)
}
