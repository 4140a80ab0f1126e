package safe

import (
	"ChatHub/logger"
)

// Go starts a goroutine that recovers from panics so a misbehaving
// side effect cannot crash the process. Used for fire-and-forget work
// (relay publishes, presence write-through) whose failure must be
// logged and must not abort the caller's response path.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
