package neat

import "time"

type updateMode int

const (
	updateByGenerations updateMode = iota
	updateByTime
)

// UpdateScheme decides when the controller fires a progress notification.
// Exactly one mode is active per run; the test runs once per completed
// generation.
type UpdateScheme struct {
	mode        updateMode
	generations uint32
	interval    time.Duration
}

// NewGenerationalUpdateScheme fires every n completed generations.
func NewGenerationalUpdateScheme(n uint32) UpdateScheme {
	if n == 0 {
		n = 1
	}
	return UpdateScheme{mode: updateByGenerations, generations: n}
}

// NewTimeUpdateScheme fires when the given wall-clock interval has elapsed
// since the last notification.
func NewTimeUpdateScheme(d time.Duration) UpdateScheme {
	if d <= 0 {
		d = time.Second
	}
	return UpdateScheme{mode: updateByTime, interval: d}
}

func (u UpdateScheme) due(generation, lastFireGeneration uint32, now, lastFireTime time.Time) bool {
	if u.mode == updateByGenerations {
		return generation-lastFireGeneration >= u.generations
	}
	return now.Sub(lastFireTime) >= u.interval
}
