// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"errors"
	"fmt"

	"github.com/gogpu/wlbuf/pixfmt"
)

// ErrSaveFailed is returned when a buffer could not preserve its
// contents across a drop and had to disable further data access.
var ErrSaveFailed = errors.New("buffer: failed to save contents on drop")

// ReadOnlyDataBuffer wraps caller-owned pixel memory. The caller's
// memory stays borrowed until Drop; if the buffer is still locked at
// that point, the contents are copied into owned storage so consumers
// never observe freed memory.
type ReadOnlyDataBuffer struct {
	Buffer

	// data points at the caller's memory until Drop, then at saved.
	// nil means data access has been disabled.
	data   []byte
	saved  []byte
	format pixfmt.Format
	stride int
}

// NewReadOnlyDataBuffer wraps data, which must hold at least
// stride*height bytes and remain valid until Drop returns.
func NewReadOnlyDataBuffer(format pixfmt.Format, stride, width, height int, data []byte) *ReadOnlyDataBuffer {
	b := &ReadOnlyDataBuffer{
		data:   data,
		format: format,
		stride: stride,
	}
	b.Init(b, width, height)
	return b
}

// Drop marks the buffer for disposal. If consumers still hold locks,
// the contents are copied first so the caller may free its memory as
// soon as Drop returns.
//
// If the copy fails, further data access on this buffer is permanently
// disabled rather than risking a read of freed memory, and
// ErrSaveFailed is returned. The buffer itself is still dropped.
func (b *ReadOnlyDataBuffer) Drop() error {
	var err error
	if b.Locked() {
		size := b.stride * b.Height()
		if size > len(b.data) {
			slogger().Error("cannot save read-only buffer contents",
				"need", size, "have", len(b.data))
			b.data = nil
			err = fmt.Errorf("%w: need %d bytes", ErrSaveFailed, size)
		} else {
			b.saved = make([]byte, size)
			copy(b.saved, b.data)
			b.data = b.saved
		}
	}

	b.Buffer.Drop()
	return err
}

// Destroy implements Destroyer.
func (b *ReadOnlyDataBuffer) Destroy() {
	b.saved = nil
	b.data = nil
}

// BeginDataPtrAccess implements DataPtrSource.
func (b *ReadOnlyDataBuffer) BeginDataPtrAccess() ([]byte, pixfmt.Format, int, bool) {
	if b.data == nil {
		return nil, 0, 0, false
	}
	return b.data, b.format, b.stride, true
}

// EndDataPtrAccess implements DataPtrSource.
func (b *ReadOnlyDataBuffer) EndDataPtrAccess() {}
