package buffer

import "testing"

func TestSignalEmitOrder(t *testing.T) {
	var s Signal
	var got []int
	l1 := &Listener{Notify: func(any) { got = append(got, 1) }}
	l2 := &Listener{Notify: func(any) { got = append(got, 2) }}
	s.Add(l1)
	s.Add(l2)

	s.Emit(nil)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("emit order = %v, want [1 2]", got)
	}
}

func TestSignalRemove(t *testing.T) {
	var s Signal
	calls := 0
	l := &Listener{Notify: func(any) { calls++ }}
	s.Add(l)
	l.Remove()
	l.Remove() // idempotent

	s.Emit(nil)
	if calls != 0 {
		t.Errorf("removed listener notified %d times", calls)
	}
}

func TestSignalSelfRemovalDuringEmit(t *testing.T) {
	var s Signal
	calls := 0
	l := &Listener{}
	l.Notify = func(any) {
		calls++
		l.Remove()
	}
	s.Add(l)

	s.Emit(nil)
	s.Emit(nil)
	if calls != 1 {
		t.Errorf("self-removing listener notified %d times, want 1", calls)
	}
}

func TestSignalRemovalOfPeerDuringEmit(t *testing.T) {
	var s Signal
	var got []int
	var l2 *Listener
	l1 := &Listener{Notify: func(any) {
		got = append(got, 1)
		l2.Remove()
	}}
	l2 = &Listener{Notify: func(any) { got = append(got, 2) }}
	s.Add(l1)
	s.Add(l2)

	s.Emit(nil)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("notifications = %v, want [1]", got)
	}
}

func TestSignalDoubleAddPanics(t *testing.T) {
	var s1, s2 Signal
	l := &Listener{Notify: func(any) {}}
	s1.Add(l)

	defer func() {
		if recover() == nil {
			t.Error("double Add did not panic")
		}
	}()
	s2.Add(l)
}

func TestSignalEmitPassesData(t *testing.T) {
	var s Signal
	var got any
	s.Add(&Listener{Notify: func(data any) { got = data }})
	s.Emit("payload")
	if got != "payload" {
		t.Errorf("data = %v, want payload", got)
	}
}
