package gui

import "sync/atomic"

// session numbers the controller sessions shown in the window. Updates
// queued for an older session are dropped.
type session struct {
	gen atomic.Uint64
}

// next starts a new session and returns its number.
func (s *session) next() uint64 {
	return s.gen.Add(1)
}

// guard captures the current session; the returned func runs fn only if
// no new session started in between.
func (s *session) guard(fn func()) func() {
	g := s.gen.Load()
	return func() {
		if s.gen.Load() == g {
			fn()
		}
	}
}
