package buffer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/wlbuf/pixfmt"
)

func TestReadOnlyDataBufferAccess(t *testing.T) {
	data := bytes.Repeat([]byte{0x11, 0x22, 0x33, 0x44}, 16)
	b := NewReadOnlyDataBuffer(pixfmt.ARGB8888, 16, 4, 4, data)

	got, format, stride, ok := b.BeginDataPtrAccess()
	if !ok {
		t.Fatal("BeginDataPtrAccess failed")
	}
	if format != pixfmt.ARGB8888 || stride != 16 {
		t.Errorf("format=%#x stride=%d", uint32(format), stride)
	}
	if !bytes.Equal(got, data) {
		t.Error("data mismatch")
	}
	b.EndDataPtrAccess()
}

// A 4x4 ARGB8888 stride-16 buffer over 64 caller-owned bytes: after
// lock, drop, and the caller invalidating its memory, data access must
// still yield the original 64 bytes.
func TestReadOnlyDataBufferSurvivesDropWhileLocked(t *testing.T) {
	caller := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 16)
	want := append([]byte(nil), caller...)

	b := NewReadOnlyDataBuffer(pixfmt.ARGB8888, 16, 4, 4, caller)
	b.Lock()

	if err := b.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	// The caller reuses its memory immediately after Drop returns.
	for i := range caller {
		caller[i] = 0
	}

	got, _, _, ok := b.BeginDataPtrAccess()
	if !ok {
		t.Fatal("BeginDataPtrAccess failed after drop")
	}
	if !bytes.Equal(got, want) {
		t.Error("saved contents differ from pre-drop contents")
	}
	b.EndDataPtrAccess()
	b.Unlock()
}

func TestReadOnlyDataBufferDropUnlockedDoesNotCopy(t *testing.T) {
	b := NewReadOnlyDataBuffer(pixfmt.ARGB8888, 16, 4, 4, make([]byte, 64))

	destroys := 0
	b.DestroySignal().Add(&Listener{Notify: func(any) { destroys++ }})
	if err := b.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if destroys != 1 {
		t.Errorf("destroy fired %d times, want 1", destroys)
	}
}

func TestReadOnlyDataBufferPoisonOnSaveFailure(t *testing.T) {
	// Undersized caller memory makes the save step fail; the buffer
	// must disable data access instead of reading out of bounds.
	b := NewReadOnlyDataBuffer(pixfmt.ARGB8888, 16, 4, 4, make([]byte, 32))
	b.Lock()

	err := b.Drop()
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("Drop error = %v, want ErrSaveFailed", err)
	}

	if _, _, _, ok := b.BeginDataPtrAccess(); ok {
		t.Error("data access still possible on poisoned buffer")
	}

	// The buffer is still dropped and still destroyable.
	destroys := 0
	b.DestroySignal().Add(&Listener{Notify: func(any) { destroys++ }})
	b.Unlock()
	if destroys != 1 {
		t.Errorf("destroy fired %d times, want 1", destroys)
	}
}
