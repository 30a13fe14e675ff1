// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"fmt"

	"github.com/gogpu/wlbuf/dmabuf"
)

// DMABufBuffer wraps a device-memory descriptor set. The descriptors
// are borrowed until Drop; if the buffer is still locked at that
// point, they are duplicated so the kernel object stays referenced
// after the original set is released.
type DMABufBuffer struct {
	Buffer

	attrs dmabuf.Attributes
	// saved is set once the buffer owns duplicated descriptors and
	// must close them on destroy.
	saved bool
}

// NewDMABufBuffer wraps a descriptor set. The descriptors must remain
// valid until Drop returns.
func NewDMABufBuffer(attrs dmabuf.Attributes) *DMABufBuffer {
	b := &DMABufBuffer{attrs: attrs}
	b.Init(b, attrs.Width, attrs.Height)
	return b
}

// Drop marks the buffer for disposal. If consumers still hold locks,
// the plane descriptors are duplicated first so the caller may close
// its set as soon as Drop returns.
//
// If duplication fails, the export capability is permanently disabled
// on this buffer and ErrSaveFailed is returned. The buffer itself is
// still dropped.
func (b *DMABufBuffer) Drop() error {
	var err error
	if b.Locked() {
		saved, cloneErr := b.attrs.Clone()
		if cloneErr != nil {
			slogger().Error("failed to save DMA-BUF descriptors", "err", cloneErr)
			b.attrs = dmabuf.Attributes{}
			err = fmt.Errorf("%w: %w", ErrSaveFailed, cloneErr)
		} else {
			b.attrs = saved
			b.saved = true
		}
	}

	b.Buffer.Drop()
	return err
}

// Destroy implements Destroyer.
func (b *DMABufBuffer) Destroy() {
	if b.saved {
		b.attrs.Close()
	}
}

// DMABuf implements DMABufSource.
func (b *DMABufBuffer) DMABuf() (dmabuf.Attributes, bool) {
	if len(b.attrs.Planes) == 0 {
		return dmabuf.Attributes{}, false
	}
	return b.attrs, true
}
