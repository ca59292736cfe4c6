package sim

import (
	"errors"
	"time"
)

// Retargeting raises the difficulty when a window of awards took less than
// retargetRaiseBelow of its expected time and lowers it when the window took
// more than retargetLowerAbove of it.
const (
	retargetRaiseBelow = 0.75
	retargetLowerAbove = 1.5
)

// DifficultySchedule determines the number of leading zeros of award
// identifiers. Every Interval awards the difficulty moves by one towards
// keeping the logical time between awards at TargetSpacing, staying within
// [Min, Max].
type DifficultySchedule struct {
	Initial int
	Min     int
	Max     int
	// Interval is the number of awards between retargets. Zero keeps the
	// difficulty at Initial for the whole run.
	Interval uint64
	// TargetSpacing is the intended logical time between consecutive awards.
	TargetSpacing time.Duration
}

// DefaultDifficultySchedule keeps the difficulty at 5 leading zeros.
var DefaultDifficultySchedule = DifficultySchedule{
	Initial:       defaultDifficulty,
	Min:           0,
	Max:           IdentifierLength,
	TargetSpacing: 10 * time.Second,
}

// due reports whether the difficulty is retargeted once the given number of
// awards have been produced.
func (d DifficultySchedule) due(awards uint64) bool {
	return d.Interval > 0 && awards > 0 && awards%d.Interval == 0
}

// Retarget returns the difficulty that follows current, given that the last
// Interval awards spanned the given logical time.
func (d DifficultySchedule) Retarget(current int, span time.Duration) int {
	expected := float64(d.Interval) * float64(d.TargetSpacing)
	switch {
	case float64(span) < retargetRaiseBelow*expected && current < d.Max:
		return current + 1
	case float64(span) > retargetLowerAbove*expected && current > d.Min:
		return current - 1
	default:
		return current
	}
}

func (d DifficultySchedule) validate() error {
	switch {
	case d.Min < 0 || d.Max > IdentifierLength || d.Min > d.Max:
		return errors.New("difficulty bounds out of range")
	case d.Initial < d.Min || d.Initial > d.Max:
		return errors.New("initial difficulty out of bounds")
	case d.Interval > 0 && d.TargetSpacing <= 0:
		return errors.New("target spacing must be positive when retargeting")
	}
	return nil
}
