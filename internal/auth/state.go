package auth

import "sync/atomic"

// State is the coordination state shared by every request of one client: whether
// a login redirect is underway and whether a logout is in progress.
type State struct {
	redirecting atomic.Bool
	logouts     atomic.Int32
	navigations atomic.Uint64
}

// BeginRedirect claims the redirect. Only the first caller gets true until
// EndRedirect is called.
func (s *State) BeginRedirect() bool {
	return s.redirecting.CompareAndSwap(false, true)
}

func (s *State) Redirecting() bool {
	return s.redirecting.Load()
}

func (s *State) EndRedirect() {
	s.redirecting.Store(false)
}

// Epoch counts completed login redirects. A request that started in an
// earlier epoch belongs to a page that has since been left.
func (s *State) Epoch() uint64 {
	return s.navigations.Load()
}

// Navigated records a completed login redirect.
func (s *State) Navigated() {
	s.navigations.Add(1)
}

// BeginLogout marks a logout as in progress. Calls nest.
func (s *State) BeginLogout() {
	s.logouts.Add(1)
}

func (s *State) EndLogout() {
	for {
		n := s.logouts.Load()
		if n <= 0 || s.logouts.CompareAndSwap(n, n-1) {
			return
		}
	}
}

func (s *State) LoggingOut() bool {
	return s.logouts.Load() > 0
}
