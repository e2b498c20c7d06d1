package ui

import (
	"strings"
	"testing"

	"crossgen/internal/driver"
)

func newTestModel(t *testing.T) *progressModel {
	t.Helper()
	m, ok := NewProgressModel("fixups: app", driver.FixupPasses, nil).(*progressModel)
	if !ok {
		t.Fatalf("unexpected model type")
	}
	return m
}

func TestProgressTracksPasses(t *testing.T) {
	m := newTestModel(t)
	steps := []struct {
		ev      driver.ProgressEvent
		percent float64
		row     string
	}{
		{driver.ProgressEvent{Pass: "collect", Status: driver.ProgressStarted, Total: 4}, 0, "running collect 0/4"},
		{driver.ProgressEvent{Pass: "collect", Status: driver.ProgressUnit, Done: 2, Total: 4}, 0.25, "running collect 2/4"},
		{driver.ProgressEvent{Pass: "collect", Status: driver.ProgressFinished, Done: 4, Total: 4}, 0.5, "done collect 4/4"},
		{driver.ProgressEvent{Pass: "emit", Status: driver.ProgressUnit, Done: 1, Total: 2, Aborted: 1}, 0.75, "running emit    1/2 (1 aborted)"},
		{driver.ProgressEvent{Pass: "emit", Status: driver.ProgressFinished, Done: 2, Total: 2, Aborted: 1}, 1, "aborted emit    2/2 (1 aborted)"},
	}
	for i, step := range steps {
		m.Update(eventMsg(step.ev))
		if got := m.percent(); got != step.percent {
			t.Fatalf("step %d: percent = %v, want %v", i, got, step.percent)
		}
		if view := m.View(); !strings.Contains(view, step.row) {
			t.Fatalf("step %d: view lacks %q:\n%s", i, step.row, view)
		}
	}
}

func TestProgressIgnoresUnknownPasses(t *testing.T) {
	m := newTestModel(t)
	m.Update(eventMsg(driver.ProgressEvent{Pass: "types", Status: driver.ProgressFinished, Done: 3, Total: 3}))
	if m.percent() != 0 {
		t.Fatalf("unknown pass must not move the bar")
	}
	if strings.Contains(m.View(), "types") {
		t.Fatalf("unknown pass rendered")
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	events := make(chan driver.ProgressEvent)
	close(events)
	m := NewProgressModel("analyze: app", driver.AnalyzePasses, events).(*progressModel)

	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("closed channel must yield doneMsg, got %T", msg)
	}
	if _, cmd := m.Update(msg); cmd == nil || !m.done {
		t.Fatalf("model must quit after the last event")
	}
	if view := m.View(); !strings.Contains(view, "done: analyze: app") || !strings.Contains(view, "queued types") {
		t.Fatalf("final view:\n%s", view)
	}
}
