package telemetry

import (
	"errors"
	"testing"
)

func TestSetExporterReturnsPrevious(t *testing.T) {
	var captured []Event
	prev := SetExporter(ExporterFunc(func(e Event) { captured = append(captured, e) }))
	defer SetExporter(prev)

	Emit("unit_compiled", map[string]any{"file": "a.jn"})
	if len(captured) != 1 || captured[0].Name != "unit_compiled" {
		t.Fatalf("captured = %+v, want one unit_compiled event", captured)
	}
}

func TestErrorEventCarriesMessageAndError(t *testing.T) {
	var got Event
	prev := SetExporter(ExporterFunc(func(e Event) { got = e }))
	defer SetExporter(prev)

	Error(nil, "cache load failed", errors.New("disk full"))
	if got.Name != "error" {
		t.Fatalf("Name = %q, want error", got.Name)
	}
	if got.Labels["message"] != "cache load failed" || got.Labels["error"] != "disk full" {
		t.Errorf("Labels = %v", got.Labels)
	}
}

func TestReportPanicsWhenPanicOnReportSet(t *testing.T) {
	PanicOnReport = true
	defer func() { PanicOnReport = false }()

	defer func() {
		if recover() == nil {
			t.Errorf("Report did not panic with PanicOnReport set")
		}
	}()
	Report("unreachable: kind %d", 7)
}

func TestReportEmitsBugEventWhenNotPanicking(t *testing.T) {
	var got Event
	prev := SetExporter(ExporterFunc(func(e Event) { got = e }))
	defer SetExporter(prev)

	Report("unexpected state %d", 3)
	if got.Name != "bug" {
		t.Fatalf("Name = %q, want bug", got.Name)
	}
}
