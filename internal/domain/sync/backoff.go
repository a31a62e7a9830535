package sync

import (
	"time"
)

// retryDelays is the fixed backoff schedule, indexed by retry count and
// clamped to the last entry: 1 min, 5 min, 15 min, 1 hr, 6 hr.
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
}

// NextRetryAt returns when a delivery that has failed retryCount times
// should be attempted again.
func NextRetryAt(now time.Time, retryCount int) time.Time {
	i := retryCount
	if i >= len(retryDelays) {
		i = len(retryDelays) - 1
	}
	if i < 0 {
		i = 0
	}
	return now.Add(retryDelays[i])
}
