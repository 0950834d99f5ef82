package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestOTelExporterExportDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exp, err := NewOTelExporter(ctx, WithServiceName("test-service"), WithFlushPeriod(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewOTelExporter: %v", err)
	}
	defer exp.Shutdown(context.Background())

	exp.Export(Event{Name: "unit_compiled", Labels: map[string]any{"file": "a.jn"}})
}

func TestOTelExporterImplementsExporter(t *testing.T) {
	var _ Exporter = (*OTelExporter)(nil)
}
