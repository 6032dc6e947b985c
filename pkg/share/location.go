package share

import (
	"fmt"
	"net/url"
	"sync"
)

// Location is the address of the page a visualizer lives on.
// Fragment writes replace the fragment in place; no history is kept.
type Location struct {
	mu  sync.RWMutex
	url url.URL
}

// NewLocation parses an absolute base URL. Any fragment it carries becomes the
// current fragment.
func NewLocation(raw string) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("parse location: %q is not absolute", raw)
	}
	return &Location{url: *u}, nil
}

// Fragment returns the current fragment without the leading "#".
func (l *Location) Fragment() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url.EscapedFragment()
}

// ReplaceFragment overwrites the fragment. An empty fragment clears it.
func (l *Location) ReplaceFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fragment == "" {
		l.url.Fragment = ""
		l.url.RawFragment = ""
		return
	}
	// The payload is already escaped by the codec.
	unescaped, err := url.PathUnescape(fragment)
	if err != nil {
		unescaped = fragment
	}
	l.url.Fragment = unescaped
	l.url.RawFragment = fragment
}

// Href returns the absolute link, fragment included.
func (l *Location) Href() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url.String()
}

// Read decodes the fragment of loc with c.
func (c *Codec[T]) Read(loc *Location) *T {
	return c.Decode(loc.Fragment())
}

// Write encodes state into the fragment of loc and returns the resulting link.
func (c *Codec[T]) Write(loc *Location, state T) string {
	loc.ReplaceFragment(c.Encode(state))
	return loc.Href()
}
