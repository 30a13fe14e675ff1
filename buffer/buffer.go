// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package buffer implements the reference-counted pixel-buffer handle
// shared between a display-protocol client and the renderer.
//
// A Buffer is alive while anyone holds a lock on it. The producer marks
// it for disposal with Drop; the backing memory is released only once
// it is both dropped and unlocked, strictly after the destroy signal
// has notified every subscriber. Producer and consumer therefore never
// need to agree on who finishes first.
//
// Concrete buffers supply a backend implementing Destroyer plus any of
// the optional capability interfaces (DMABufSource, ShmSource,
// DataPtrSource). A missing capability is a negative query, never an
// error.
//
// All methods assume a single logical thread of control; cross-thread
// use requires external synchronization.
package buffer

import (
	"github.com/gogpu/wlbuf/dmabuf"
	"github.com/gogpu/wlbuf/pixfmt"
)

// Destroyer is the one mandatory backend capability: it releases the
// backing storage. It is invoked exactly once, after the destroy
// signal has been emitted.
type Destroyer interface {
	Destroy()
}

// DMABufSource is implemented by backends that can export their memory
// as a device-memory descriptor set without copying.
//
// The returned attributes are borrowed: they stay valid while the
// buffer is locked and the caller must not Close them.
type DMABufSource interface {
	DMABuf() (dmabuf.Attributes, bool)
}

// ShmAttributes describes a buffer's shared-memory backing.
type ShmAttributes struct {
	FD     int
	Format pixfmt.Format
	Offset int
	Stride int
}

// ShmSource is implemented by backends backed by a shared-memory pool.
type ShmSource interface {
	Shm() (ShmAttributes, bool)
}

// DataPtrSource is implemented by backends that can expose their
// pixels as raw memory for the duration of a begin/end bracket. The
// backend may have to map memory in BeginDataPtrAccess and must undo
// that in EndDataPtrAccess.
type DataPtrSource interface {
	BeginDataPtrAccess() (data []byte, format pixfmt.Format, stride int, ok bool)
	EndDataPtrAccess()
}

// Buffer is a shared handle to a pixel buffer. Embed it in a backend
// struct and call Init with the backend itself as the implementation.
type Buffer struct {
	impl   Destroyer
	width  int
	height int

	nLocks           int
	dropped          bool
	accessingDataPtr bool

	destroy Signal
	release Signal
}

// Init prepares the buffer with its backend implementation and
// dimensions. The implementation must not be nil.
func (b *Buffer) Init(impl Destroyer, width, height int) {
	if impl == nil {
		panic("buffer: nil implementation")
	}
	b.impl = impl
	b.width = width
	b.height = height
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Locked reports whether any lock is currently held.
func (b *Buffer) Locked() bool { return b.nLocks > 0 }

// LockCount returns the number of locks currently held.
func (b *Buffer) LockCount() int { return b.nLocks }

// Dropped reports whether the producer has marked the buffer for
// disposal.
func (b *Buffer) Dropped() bool { return b.dropped }

// DestroySignal is emitted right before the backing storage is
// released. Subscribers must drop any cached reference to the buffer
// before returning; they may read fields during delivery but not
// retain the buffer.
func (b *Buffer) DestroySignal() *Signal { return &b.destroy }

// ReleaseSignal is emitted when the lock count returns to zero,
// telling the producer the storage may be reclaimed or reused.
func (b *Buffer) ReleaseSignal() *Signal { return &b.release }

// considerDestroy tears the buffer down once it is both dropped and
// unlocked. Called after every transition that could make that true.
func (b *Buffer) considerDestroy() {
	if !b.dropped || b.nLocks > 0 {
		return
	}
	if b.accessingDataPtr {
		panic("buffer: destroying buffer during data pointer access")
	}
	b.destroy.Emit(nil)
	b.impl.Destroy()
}

// Lock takes a reference and returns the same shared handle. The
// buffer stays alive at least until the matching Unlock.
func (b *Buffer) Lock() *Buffer {
	b.nLocks++
	return b
}

// Unlock releases a reference taken with Lock. When the last reference
// goes away the release signal fires, and the buffer is destroyed if
// the producer has already dropped it.
//
// Unlock panics if no lock is held.
func (b *Buffer) Unlock() {
	if b.nLocks == 0 {
		panic("buffer: unlock of unlocked buffer")
	}
	b.nLocks--

	if b.nLocks == 0 {
		b.release.Emit(nil)
	}

	b.considerDestroy()
}

// Drop marks the buffer for disposal: the producer will take no new
// references. The buffer is destroyed immediately if unlocked, or when
// the last lock is released otherwise.
//
// Drop panics if called twice.
func (b *Buffer) Drop() {
	if b.dropped {
		panic("buffer: buffer dropped twice")
	}
	b.dropped = true
	b.considerDestroy()
}

// DMABuf queries the zero-copy export capability. ok is false if the
// backend does not support it.
func (b *Buffer) DMABuf() (dmabuf.Attributes, bool) {
	src, ok := b.impl.(DMABufSource)
	if !ok {
		return dmabuf.Attributes{}, false
	}
	return src.DMABuf()
}

// Shm queries the shared-memory backing. ok is false if the backend is
// not shm-backed.
func (b *Buffer) Shm() (ShmAttributes, bool) {
	src, ok := b.impl.(ShmSource)
	if !ok {
		return ShmAttributes{}, false
	}
	return src.Shm()
}

// BeginDataPtrAccess acquires the buffer's raw pixels, their format
// and byte stride. The slice is valid only until the matching
// EndDataPtrAccess. ok is false if the backend cannot expose raw
// memory, or refuses to right now.
//
// Nesting is a precondition violation and panics.
func (b *Buffer) BeginDataPtrAccess() (data []byte, format pixfmt.Format, stride int, ok bool) {
	if b.accessingDataPtr {
		panic("buffer: nested data pointer access")
	}
	src, isSrc := b.impl.(DataPtrSource)
	if !isSrc {
		return nil, 0, 0, false
	}
	data, format, stride, ok = src.BeginDataPtrAccess()
	if !ok {
		return nil, 0, 0, false
	}
	b.accessingDataPtr = true
	return data, format, stride, true
}

// EndDataPtrAccess ends the access started by BeginDataPtrAccess.
// Panics without a matching begin.
func (b *Buffer) EndDataPtrAccess() {
	if !b.accessingDataPtr {
		panic("buffer: end of data pointer access that was never begun")
	}
	b.impl.(DataPtrSource).EndDataPtrAccess()
	b.accessingDataPtr = false
}
