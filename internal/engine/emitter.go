package engine

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"backsim/types"
)

// SnapshotKind enumerates the fixed message taxonomy delivered to sinks.
type SnapshotKind string

const (
	SnapshotStart    SnapshotKind = "start"
	SnapshotUpdate   SnapshotKind = "update"
	SnapshotComplete SnapshotKind = "complete"
	SnapshotError    SnapshotKind = "error"
)

// Snapshot is the immutable per-bar state package pushed to sinks. A
// start snapshot precedes the first bar, one update follows every
// processed bar, and exactly one complete or error snapshot terminates the
// stream.
type Snapshot struct {
	Kind      SnapshotKind `json:"type"`
	Seq       int          `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`

	// start
	TotalBars int    `json:"totalBars,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Strategy  string `json:"strategy,omitempty"`

	// update
	Candle        *types.Candle        `json:"candle,omitempty"`
	BarIndex      int                  `json:"barIndex,omitempty"`
	Fills         []types.Fill         `json:"fills,omitempty"`
	PendingOrders int                  `json:"pendingOrders,omitempty"`
	Portfolio     *types.PortfolioView `json:"portfolio,omitempty"`
	Metrics       *types.Metrics       `json:"metrics,omitempty"`

	// complete
	Report *Report `json:"report,omitempty"`

	// error
	Reason string `json:"reason,omitempty"`

	// Errors absorbed since the previous snapshot (rejected orders,
	// strategy failures, sink delivery failures).
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Sink receives snapshots. Publish errors are isolated by the emitter: the
// run keeps going, the failure is logged, and it surfaces in the next
// snapshot's diagnostics. Nothing is retried, so a flaky sink can never
// duplicate a delivery.
type Sink interface {
	Publish(snapshot Snapshot) error
}

type emitter struct {
	sink Sink
	log  *slog.Logger
	seq  int

	// pending diagnostic from the last failed delivery, attached to the
	// next snapshot
	deliveryErr string
}

func newEmitter(sink Sink, log *slog.Logger) *emitter {
	return &emitter{sink: sink, log: log}
}

func (e *emitter) emit(snapshot Snapshot) {
	if e.sink == nil {
		return
	}
	snapshot.Seq = e.seq
	e.seq++

	if e.deliveryErr != "" {
		snapshot.Diagnostics = append(snapshot.Diagnostics, e.deliveryErr)
		e.deliveryErr = ""
	}

	if err := e.sink.Publish(snapshot); err != nil {
		e.deliveryErr = "sink delivery failed: " + err.Error()
		e.log.Warn("snapshot delivery failed",
			"kind", snapshot.Kind, "seq", snapshot.Seq, "err", err)
	}
}

// WriterSink writes each snapshot as one JSON line, matching the frame
// format streamed to UI clients.
type WriterSink struct {
	enc *json.Encoder
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

func (s *WriterSink) Publish(snapshot Snapshot) error {
	return s.enc.Encode(snapshot)
}

// LogSink records a one-line summary of each snapshot via slog.
type LogSink struct {
	Log *slog.Logger
}

func (s *LogSink) Publish(snapshot Snapshot) error {
	switch snapshot.Kind {
	case SnapshotUpdate:
		s.Log.Debug("bar processed",
			"bar", snapshot.BarIndex,
			"fills", len(snapshot.Fills),
			"equity", snapshot.Portfolio.Equity)
	case SnapshotError:
		s.Log.Error("run aborted", "reason", snapshot.Reason)
	default:
		s.Log.Info(string(snapshot.Kind), "seq", snapshot.Seq)
	}
	return nil
}

// MultiSink fans a snapshot out to several sinks, returning the first
// delivery error after all sinks have been attempted.
type MultiSink []Sink

func (m MultiSink) Publish(snapshot Snapshot) error {
	var firstErr error
	for _, s := range m {
		if err := s.Publish(snapshot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ChannelSink forwards snapshots to a channel, dropping when the receiver
// falls behind. Test harnesses and UI bridges consume it.
type ChannelSink struct {
	C chan Snapshot
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan Snapshot, buffer)}
}

func (s *ChannelSink) Publish(snapshot Snapshot) error {
	select {
	case s.C <- snapshot:
	default:
	}
	return nil
}
