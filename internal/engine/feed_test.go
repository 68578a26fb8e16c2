package engine

import (
	"errors"
	"testing"
	"time"

	"backsim/types"
)

func candlesAt(minutes ...int64) []types.Candle {
	out := make([]types.Candle, 0, len(minutes))
	for _, m := range minutes {
		out = append(out, testCandle("100", "101", "99", "100", time.UnixMilli(m*60000)))
	}
	return out
}

func TestBarFeedYieldsEveryBarOnce(t *testing.T) {
	candles := candlesAt(0, 1, 2, 3)
	feed := newBarFeed(candles)

	if feed.length() != 4 {
		t.Fatalf("length() = %d, want 4", feed.length())
	}

	for i := range candles {
		c, ok, err := feed.next()
		if err != nil {
			t.Fatalf("next() error = %v", err)
		}
		if !ok {
			t.Fatalf("feed exhausted at bar %d", i)
		}
		if !c.Timestamp.Equal(candles[i].Timestamp) {
			t.Errorf("bar %d timestamp = %s, want %s", i, c.Timestamp, candles[i].Timestamp)
		}
	}

	if _, ok, err := feed.next(); ok || err != nil {
		t.Errorf("exhausted feed returned ok=%v err=%v", ok, err)
	}
	// exhaustion is sticky
	if _, ok, _ := feed.next(); ok {
		t.Error("feed yielded a bar after exhaustion")
	}
}

func TestBarFeedEmpty(t *testing.T) {
	feed := newBarFeed(nil)
	if _, ok, err := feed.next(); ok || err != nil {
		t.Errorf("empty feed returned ok=%v err=%v", ok, err)
	}
}

func TestBarFeedRejectsNonIncreasingTimestamps(t *testing.T) {
	tests := []struct {
		name    string
		minutes []int64
	}{
		{"duplicate timestamp", []int64{0, 1, 1}},
		{"regression", []int64{0, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newBarFeed(candlesAt(tt.minutes...))
			var err error
			for {
				var ok bool
				_, ok, err = feed.next()
				if !ok || err != nil {
					break
				}
			}
			if !errors.Is(err, DataGapErr) {
				t.Errorf("error = %v, want DataGapErr", err)
			}
		})
	}
}
