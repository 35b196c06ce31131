package backoffdelay

import (
	"time"
)

// Sleeper yields increasing delays, bounded by a maximum.
type Sleeper interface {
	// After returns a channel which receives after the next delay and then
	// grows the delay.
	After() <-chan time.Time
	// Sleep blocks for the next delay and then grows the delay.
	Sleep()
}

// NewExponential creates a Sleeper with specified minimum and maximum delays.
// If minimumDelay is less than or equal to 0, the default is 1 second.
// If maximumDelay is less than or equal to minimumDelay, the default is 10
// times minimumDelay.
// The interval will increase by a factor of 2 raised to the power of
// -growthRate. For example:
// 0: 1x
// 1: 0.5x
// 2: 0.25x
func NewExponential(minimumDelay, maximumDelay time.Duration,
	growthRate uint) Sleeper {
	return newExponential(minimumDelay, maximumDelay, growthRate)
}
