package fetch

import "time"

// Backoff computes retry delays. The schedule is deterministic: the wait
// after the n-th failed attempt is Base * 2^(n-1).
type Backoff struct {
	Base time.Duration
}

// maxShift bounds the doubling so the delay never overflows int64.
const maxShift = 32

// Delay returns the wait after the given 1-based attempt fails.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxShift {
		shift = maxShift
	}
	return b.Base << shift
}
