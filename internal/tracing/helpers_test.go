package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newSpanRecorder installs a recording tracer provider and returns the recorder.
func newSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func TestStartDBSpan(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		operation DBOperation
		wantName  string
	}{
		{"query with table", "network_listings", DBOperationQuery, "query network_listings"},
		{"insert with table", "boost_rules", DBOperationInsert, "insert boost_rules"},
		{"update with table", "boost_rules", DBOperationUpdate, "update boost_rules"},
		{"copy batch", "discovery_impressions", DBOperationInsert, "insert discovery_impressions"},
		{"query without table", "", DBOperationQuery, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := newSpanRecorder(t)

			_, endSpan := StartDBSpan(context.Background(), tt.table, tt.operation)
			endSpan(nil)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("recorded %d spans, want 1", len(spans))
			}
			if spans[0].Name() != tt.wantName {
				t.Errorf("span name = %s, want %s", spans[0].Name(), tt.wantName)
			}
		})
	}
}

func TestStartDBSpanRecordsError(t *testing.T) {
	recorder := newSpanRecorder(t)

	_, endSpan := StartDBSpan(context.Background(), "boost_rules", DBOperationInsert)
	endSpan(errors.New("duplicate key"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status().Code)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("no error event recorded")
	}
}

func TestStartSpan(t *testing.T) {
	recorder := newSpanRecorder(t)

	ctx, endSpan := StartSpan(context.Background(), "ranking.Rank")
	if ctx == nil {
		t.Fatal("context is nil")
	}
	endSpan(nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "ranking.Rank" {
		t.Errorf("span name = %s, want ranking.Rank", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("success span marked as error")
	}
}
