package clock

import "time"

// Clock provides the current time. Injected so silence expiry and
// retention cutoffs are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
