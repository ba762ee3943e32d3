package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time and schedules periodic callbacks.
// Sessions take a Clock so tests can drive time without real delays.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned stop func is called.
	// stop is idempotent and may be called from inside fn.
	Every(interval time.Duration, fn func()) (stop func())
}

type systemClock struct{}

// System returns the wall clock. Callbacks run on a dedicated goroutine per ticker.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
