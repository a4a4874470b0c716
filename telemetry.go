package server

import (
	"fmt"
	"os"
	"sync/atomic"
)

type telemetryCounters struct {
	bytesSent          atomic.Uint64
	eventsSent         atomic.Uint64
	lastBroadcastBytes atomic.Uint64
	debug              bool
}

// TelemetrySnapshot is the JSON view served by the status endpoint.
type TelemetrySnapshot struct {
	BytesSent  uint64 `json:"bytesSent"`
	EventsSent uint64 `json:"eventsSent"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, events int) {
	if bytes < 0 {
		bytes = 0
	}
	if events < 0 {
		events = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.eventsSent.Add(uint64(events))
	t.lastBroadcastBytes.Store(uint64(bytes))
	if t.debug {
		fmt.Printf(
			"[telemetry] bytes=%d totalBytes=%d totalEvents=%d\n",
			bytes,
			t.bytesSent.Load(),
			t.eventsSent.Load(),
		)
	}
}

func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		BytesSent:  t.bytesSent.Load(),
		EventsSent: t.eventsSent.Load(),
	}
}
