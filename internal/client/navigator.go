package client

import "sync"

// Navigator is the client's view of the application's current location.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// Location is an in-process Navigator that remembers every navigation.
type Location struct {
	mu      sync.RWMutex
	path    string
	history []string
}

func NewLocation(path string) *Location {
	return &Location{path: path}
}

func (l *Location) CurrentPath() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

func (l *Location) Navigate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
	l.history = append(l.history, path)
}

func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.history...)
}
