package clock

import "time"

// SystemClock is the wall clock. Times carry no monotonic reading, so entry
// timestamps compare and print the same before and after a round trip.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Round(0) }
