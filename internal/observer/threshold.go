package observer

import (
	"time"

	"codeberg.org/vintr/impressd/internal/errors"
)

// Threshold names a visibility state: a target enters it once its
// intersection ratio has stayed at or above Ratio for Time. A Time of
// zero crosses on the same tick the ratio is first met. A Ratio of zero
// means "any visible pixel": the target must intersect the viewport at
// all, however slightly.
type Threshold struct {
	Label string
	Ratio float64
	Time  time.Duration
}

// met reports whether the sampled ratio satisfies the threshold.
func (t Threshold) met(ratio float64) bool {
	if t.Ratio == 0 {
		return ratio > 0
	}

	return ratio >= t.Ratio
}

func validateThresholds(thresholds []Threshold) error {
	errFactory := errors.New()

	if len(thresholds) == 0 {
		return errFactory.New(errors.ErrEmptyThresholds)
	}

	seen := make(map[string]struct{}, len(thresholds))
	for _, t := range thresholds {
		if _, ok := seen[t.Label]; ok {
			return errFactory.WithData(errors.ErrDuplicateLabel, t.Label)
		}
		seen[t.Label] = struct{}{}

		if t.Ratio < 0 || t.Ratio > 1 {
			return errFactory.WithData(errors.ErrRatioOutOfRange, t.Ratio)
		}
		if t.Time < 0 {
			return errFactory.WithData(errors.ErrNegativeTime, t.Time)
		}
	}

	return nil
}

// thresholdState tracks one threshold's progress on one target.
// crossed implies armed; crossedAt is meaningful only while crossed.
type thresholdState struct {
	threshold Threshold
	armed     bool
	armedAt   time.Time
	crossed   bool
	crossedAt time.Time
}
