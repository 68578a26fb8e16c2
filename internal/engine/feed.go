package engine

import (
	"fmt"

	"backsim/types"
)

// barFeed yields candles one at a time in their stored order. The cursor
// only moves forward; replaying a run means building a new feed over the
// same slice. The feed never sleeps — pacing belongs to the run loop so it
// cannot leak into simulation semantics.
type barFeed struct {
	candles []types.Candle
	cursor  int
}

func newBarFeed(candles []types.Candle) *barFeed {
	return &barFeed{candles: candles}
}

// next returns the next candle in sequence. ok is false once the feed is
// exhausted. A candle whose timestamp does not strictly follow its
// predecessor returns DataGapErr.
func (f *barFeed) next() (types.Candle, bool, error) {
	if f.cursor >= len(f.candles) {
		return types.Candle{}, false, nil
	}
	c := f.candles[f.cursor]
	if f.cursor > 0 {
		prev := f.candles[f.cursor-1]
		if !c.Timestamp.After(prev.Timestamp) {
			return types.Candle{}, false, fmt.Errorf(
				"bar %d (%s) does not follow bar %d (%s): %w",
				f.cursor, c.Timestamp, f.cursor-1, prev.Timestamp, DataGapErr)
		}
	}
	f.cursor++
	return c, true, nil
}

func (f *barFeed) length() int {
	return len(f.candles)
}
