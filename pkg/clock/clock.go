package clock

import "time"

// Clock abstracts the wall clock so delivery-window checks and persisted
// timestamps can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Fixed returns a Clock that always reports the given instant.
func Fixed(t time.Time) Clock {
	return fixedClock{at: t}
}

type fixedClock struct {
	at time.Time
}

func (f fixedClock) Now() time.Time {
	return f.at
}
