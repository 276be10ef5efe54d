package accounts

import "time"

// Clock abstracts time.Now so expiries can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now satisfies the Clock interface.
func (f ClockFunc) Now() time.Time { return f() }

// IsWithinThresholdPeriod checks if the given time is within the threshold
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := time.Now().Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}
