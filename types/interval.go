package types

import "time"

type Interval string

const (
	OneMinute      Interval = "1"
	FiveMinutes    Interval = "5"
	FifteenMinutes Interval = "15"
	ThirtyMinutes  Interval = "30"
	Hour           Interval = "60"
	FourHours      Interval = "240"
	Day            Interval = "D"
	Week           Interval = "W"
)

var IntervalToTime = map[Interval]time.Duration{
	OneMinute:      time.Minute,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	FourHours:      time.Hour * 4,
	Day:            time.Hour * 24,
	Week:           time.Hour * 24 * 7,
}

// BarsPerYear maps an interval to the number of bars in a trading year,
// used to annualize per-bar return statistics. Intraday counts assume a
// 6.5 hour US equity session over 252 trading days.
var BarsPerYear = map[Interval]float64{
	OneMinute:      390 * 252,
	FiveMinutes:    78 * 252,
	FifteenMinutes: 26 * 252,
	ThirtyMinutes:  13 * 252,
	Hour:           6.5 * 252,
	FourHours:      2 * 252,
	Day:            252,
	Week:           52,
}

var ConvertInterval = map[string]Interval{
	"1":   OneMinute,
	"5":   FiveMinutes,
	"15":  FifteenMinutes,
	"30":  ThirtyMinutes,
	"60":  Hour,
	"240": FourHours,
	"D":   Day,
	"W":   Week,
}
