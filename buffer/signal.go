// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

// Listener observes a single Signal. Register with Signal.Add and call
// Remove before the listener's owner goes away: signals hold plain
// back-references, never ownership, so a stale listener is a dangling
// callback.
type Listener struct {
	// Notify is invoked on emission with the data passed to Emit.
	Notify func(data any)

	signal *Signal
}

// Remove detaches the listener from its signal. Idempotent; safe to
// call from inside the listener's own Notify.
func (l *Listener) Remove() {
	if l.signal == nil {
		return
	}
	s := l.signal
	l.signal = nil
	for i, reg := range s.listeners {
		if reg == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Signal is an ordered list of listeners. The zero value is ready to use.
type Signal struct {
	listeners []*Listener
}

// Add registers a listener. A listener may be registered with at most
// one signal at a time.
func (s *Signal) Add(l *Listener) {
	if l.signal != nil {
		panic("buffer: listener already registered")
	}
	l.signal = s
	s.listeners = append(s.listeners, l)
}

// Emit notifies every registered listener in registration order.
// Listeners may remove themselves or any other listener during
// delivery; removed listeners are not notified.
func (s *Signal) Emit(data any) {
	snapshot := make([]*Listener, len(s.listeners))
	copy(snapshot, s.listeners)
	for _, l := range snapshot {
		if l.signal == s {
			l.Notify(data)
		}
	}
}
