package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type recordingSink struct {
	snapshots []Snapshot
	failOn    map[int]error // keyed by call index
	calls     int
}

func (s *recordingSink) Publish(snapshot Snapshot) error {
	defer func() { s.calls++ }()
	if err, ok := s.failOn[s.calls]; ok {
		return err
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestEmitterSequencesSnapshots(t *testing.T) {
	sink := &recordingSink{}
	em := newEmitter(sink, discardLogger())

	em.emit(Snapshot{Kind: SnapshotStart})
	em.emit(Snapshot{Kind: SnapshotUpdate})
	em.emit(Snapshot{Kind: SnapshotComplete})

	if len(sink.snapshots) != 3 {
		t.Fatalf("delivered = %d, want 3", len(sink.snapshots))
	}
	for i, snap := range sink.snapshots {
		if snap.Seq != i {
			t.Errorf("snapshot %d seq = %d, want %d", i, snap.Seq, i)
		}
	}
}

func TestEmitterCarriesDeliveryFailureForward(t *testing.T) {
	sink := &recordingSink{failOn: map[int]error{1: errors.New("pipe closed")}}
	em := newEmitter(sink, discardLogger())

	em.emit(Snapshot{Kind: SnapshotStart})
	em.emit(Snapshot{Kind: SnapshotUpdate}) // dropped by the sink
	em.emit(Snapshot{Kind: SnapshotUpdate})

	if len(sink.snapshots) != 2 {
		t.Fatalf("delivered = %d, want 2", len(sink.snapshots))
	}
	last := sink.snapshots[1]
	if len(last.Diagnostics) != 1 || !strings.Contains(last.Diagnostics[0], "pipe closed") {
		t.Errorf("diagnostics = %v, want the previous delivery error", last.Diagnostics)
	}
	// a failed delivery still consumes a sequence number
	if last.Seq != 2 {
		t.Errorf("seq = %d, want 2", last.Seq)
	}

	// the diagnostic is reported once, not repeated
	em.emit(Snapshot{Kind: SnapshotUpdate})
	if n := len(sink.snapshots[2].Diagnostics); n != 0 {
		t.Errorf("diagnostics repeated on later snapshot: %v", sink.snapshots[2].Diagnostics)
	}
}

func TestEmitterNilSink(t *testing.T) {
	em := newEmitter(nil, discardLogger())
	em.emit(Snapshot{Kind: SnapshotStart}) // must not panic
}

func TestWriterSinkEncodesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	if err := sink.Publish(Snapshot{Kind: SnapshotStart, TotalBars: 42, Symbol: "AAPL"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := sink.Publish(Snapshot{Kind: SnapshotComplete, Seq: 1}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var first Snapshot
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.Kind != SnapshotStart || first.TotalBars != 42 || first.Symbol != "AAPL" {
		t.Errorf("first line = %+v", first)
	}
}

func TestMultiSinkFansOutAndReportsFirstError(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{failOn: map[int]error{0: errors.New("b down")}}
	c := &recordingSink{}
	multi := MultiSink{a, b, c}

	err := multi.Publish(Snapshot{Kind: SnapshotStart})
	if err == nil || !strings.Contains(err.Error(), "b down") {
		t.Errorf("error = %v, want b's failure", err)
	}
	// sinks after the failing one are still attempted
	if len(a.snapshots) != 1 || len(c.snapshots) != 1 {
		t.Errorf("deliveries a=%d c=%d, want 1 each", len(a.snapshots), len(c.snapshots))
	}
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)

	if err := sink.Publish(Snapshot{Seq: 0}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	// buffer full; the second publish drops instead of blocking
	if err := sink.Publish(Snapshot{Seq: 1}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got := <-sink.C
	if got.Seq != 0 {
		t.Errorf("received seq = %d, want 0", got.Seq)
	}
	select {
	case extra := <-sink.C:
		t.Errorf("unexpected extra snapshot %+v", extra)
	default:
	}
}
