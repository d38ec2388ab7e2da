package srs

import (
	"math"
	"time"
)

// SM-2 constants.
const (
	// DefaultEase is the ease factor assigned before any review.
	DefaultEase = 2.5
	// MinEase is the floor for the ease factor; going lower would trap a card
	// in runaway short intervals.
	MinEase = 1.3
	// PassThreshold is the lowest quality counted as a successful recall.
	// Anything below it is a lapse.
	PassThreshold = 3
	// FirstInterval and SecondInterval are the fixed steps of the interval
	// ladder before ease-multiplied growth takes over.
	FirstInterval  = 1
	SecondInterval = 6
	// DefaultMaxIntervalDays caps interval growth at one year.
	DefaultMaxIntervalDays = 365

	// MinQuality and MaxQuality bound the 0-5 recall rating.
	MinQuality = 0
	MaxQuality = 5
)

// Review applies one SM-2 review to prior and returns the next state.
// prior may be the zero State for a card that has never been reviewed.
// quality is the 0-5 recall rating; values below PassThreshold reset the
// interval ladder while the adjusted ease factor persists across the lapse.
func Review(prior State, quality int, now time.Time) (State, error) {
	return review(prior, quality, now, DefaultMaxIntervalDays)
}

func review(prior State, quality int, now time.Time, maxInterval int) (State, error) {
	if quality < MinQuality || quality > MaxQuality {
		return State{}, ErrInvalidQuality
	}

	ease := prior.EaseFactor
	if ease == 0 {
		ease = DefaultEase
	}

	// EF' = EF + (0.1 - (5-q) * (0.08 + (5-q)*0.02)), floored at MinEase.
	// Quality 5 raises ease, 4 leaves it nearly unchanged, lower grades sink it.
	q := float64(quality)
	ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ease < MinEase {
		ease = MinEase
	}

	next := State{EaseFactor: ease}
	if quality < PassThreshold {
		// Lapse: the card reappears tomorrow regardless of history.
		next.Repetitions = 0
		next.Interval = FirstInterval
	} else {
		next.Repetitions = prior.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = FirstInterval
		case 2:
			next.Interval = SecondInterval
		default:
			next.Interval = int(math.Round(float64(prior.Interval) * ease))
		}
	}

	if next.Interval < 1 {
		next.Interval = 1
	}
	if maxInterval > 0 && next.Interval > maxInterval {
		next.Interval = maxInterval
	}

	next.Due = DateOf(now).AddDate(0, 0, next.Interval)
	next.LastReview = now.UTC()
	return next, nil
}
