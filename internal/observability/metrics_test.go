package observability

import (
	"testing"
	"time"

	"github.com/danmuck/sketchnet/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("alice", "GET", "/health", 200, 12*time.Millisecond)
	RecordMessage("chat", ResultDispatched)
	RecordBroadcastSend(true)
	RecordBroadcastSend(false)
}

func TestRecordConnectionTracksActiveGauge(t *testing.T) {
	testlog.Start(t)

	before := testutil.ToFloat64(peerActive)
	RecordConnection(DirectionInbound, ResultAccepted)
	RecordConnection(DirectionOutbound, ResultAccepted)
	RecordConnection(DirectionInbound, ResultRejected)
	if got := testutil.ToFloat64(peerActive); got != before+2 {
		t.Fatalf("unexpected active gauge: got=%v want=%v", got, before+2)
	}
	RecordConnection(DirectionInbound, ResultClosed)
	if got := testutil.ToFloat64(peerActive); got != before+1 {
		t.Fatalf("unexpected active gauge after close: got=%v want=%v", got, before+1)
	}
	if got := testutil.ToFloat64(peerConnections.WithLabelValues(DirectionInbound, ResultRejected)); got < 1 {
		t.Fatalf("rejected counter not recorded: %v", got)
	}
}
