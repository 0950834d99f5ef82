// Package telemetry is the engine's ambient structured-logging and
// tracing substrate. It is deliberately small: the engine's pure
// algorithms (extraction, CID generation, graph traversal, change
// classification, optimization) emit a handful of named events at
// well-defined points, and callers choose how those events are recorded
// by supplying an Exporter — OTelExporter, backed by
// go.opentelemetry.io/otel, or the default, a bare log.Printf logger
// used until SetExporter installs another.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event is one structured occurrence: a name plus a set of labels (a map,
// so the labels carry no order). Unlike a free-form log line, the label set is always available
// programmatically to an Exporter that wants to turn it into a span
// attribute or a metric data point.
type Event struct {
	Name   string
	Labels map[string]any
	At     time.Time
}

// Exporter receives every emitted Event. Implementations must not block
// the caller for long; both exporters in this package work synchronously
// in the caller's goroutine (the default prints a log line, OTelExporter
// ends a span and increments a counter).
type Exporter interface {
	Export(Event)
}

// ExporterFunc adapts a function to an Exporter.
type ExporterFunc func(Event)

func (f ExporterFunc) Export(e Event) { f(e) }

var activeExporter Exporter = ExporterFunc(func(e Event) {
	log.Printf("janus: %s %v", e.Name, e.Labels)
})

// SetExporter installs the process-wide Exporter, mirroring
// `event.SetExporter(otelExporter.ProcessEvent)` in the teacher's
// otel.go doc comment. It returns the previously installed exporter so
// tests can restore it.
func SetExporter(e Exporter) Exporter {
	prev := activeExporter
	if e == nil {
		e = ExporterFunc(func(Event) {})
	}
	activeExporter = e
	return prev
}

// Emit records an event under the currently installed exporter.
func Emit(name string, labels map[string]any) {
	activeExporter.Export(Event{Name: name, Labels: labels, At: time.Now()})
}

// Error is a convenience wrapper for error-carrying events, matching the
// teacher's `event.Error(ctx, message, err)` call shape (seen at
// `gopls/internal/cache/check.go`'s `typerefData`) without requiring a
// context.Context — this engine's algorithms are synchronous and
// cancellation-free per spec.md §5, so a context parameter would be
// decorative. ctx is accepted and ignored for callers that already have
// one in scope (e.g. the build cache's I/O paths).
func Error(_ context.Context, message string, err error) {
	Emit("error", map[string]any{"message": message, "error": err.Error()})
}

// PanicOnReport, when true, makes Report panic instead of emitting an
// event — for use in this module's own tests, mirroring
// `bug.PanicOnBugs = true` in `gopls/internal/cache/metadata/cycle_test.go`,
// so that a test asserting a code path is unreachable actually fails
// loudly instead of quietly logging.
var PanicOnReport bool

// Report records a condition that should never happen but must not crash
// a running build — spec.md §4.5/§7's "Integrity" and "diagnostic signal,
// never a propagated error" categories. Grounded on gopls's
// `internal/util/bug.Reportf`.
func Report(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if PanicOnReport {
		panic("telemetry: " + msg)
	}
	Emit("bug", map[string]any{"message": msg})
}
