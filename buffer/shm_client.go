// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package buffer

import (
	"errors"

	"github.com/gogpu/wlbuf/pixfmt"
	"github.com/gogpu/wlbuf/shm"
)

// Resource is the protocol-side handle a client buffer wraps. The core
// only ever acknowledges release and watches for destruction; parsing
// and dispatch live elsewhere.
type Resource interface {
	// SendRelease tells the client the compositor is done reading the
	// resource's storage. Re-releasing an already-released resource is
	// a no-op on the protocol side.
	SendRelease()

	// DestroySignal is emitted when the client destroys the resource.
	DestroySignal() *Signal
}

// ErrNilShmBuffer is returned when creating a shm client buffer
// without backing storage.
var ErrNilShmBuffer = errors.New("buffer: nil shm buffer")

// ShmClientBuffer is a client buffer carved from a shared-memory pool.
//
// If the client destroys the resource while the compositor still holds
// locks, the buffer takes its own reference on the pool and snapshots
// the data slice, so data access keeps working after the protocol
// object is gone.
type ShmClientBuffer struct {
	Buffer

	resource Resource
	shmBuf   *shm.Buffer
	format   pixfmt.Format
	stride   int

	savedPool *shm.Pool
	savedData []byte

	resourceDestroy Listener
	release         Listener
}

// NewShmClientBuffer wraps a protocol resource backed by sb.
func NewShmClientBuffer(res Resource, sb *shm.Buffer) (*ShmClientBuffer, error) {
	if sb == nil {
		return nil, ErrNilShmBuffer
	}

	b := &ShmClientBuffer{
		resource: res,
		shmBuf:   sb,
		format:   pixfmt.FromShm(sb.Format()),
		stride:   sb.Stride(),
	}
	b.Init(b, sb.Width(), sb.Height())

	b.resourceDestroy.Notify = b.handleResourceDestroy
	res.DestroySignal().Add(&b.resourceDestroy)

	b.release.Notify = b.handleRelease
	b.ReleaseSignal().Add(&b.release)

	return b, nil
}

func (b *ShmClientBuffer) handleResourceDestroy(any) {
	// To keep the memory region readable we take our own reference to
	// the pool and remember the data slice. If the client reuses the
	// pool region before our last read, that read observes garbage; we
	// accept this risk rather than copying every buffer defensively.
	b.savedPool = b.shmBuf.Pool().Ref()
	b.savedData = b.shmBuf.Data()

	b.resource = nil
	b.shmBuf = nil
	b.resourceDestroy.Remove()
}

func (b *ShmClientBuffer) handleRelease(any) {
	if b.resource != nil {
		b.resource.SendRelease()
	}
}

// Destroy implements Destroyer.
func (b *ShmClientBuffer) Destroy() {
	b.resourceDestroy.Remove()
	b.release.Remove()
	if b.savedPool != nil {
		b.savedPool.Unref()
		b.savedPool = nil
		b.savedData = nil
	}
}

// BeginDataPtrAccess implements DataPtrSource.
func (b *ShmClientBuffer) BeginDataPtrAccess() ([]byte, pixfmt.Format, int, bool) {
	if b.shmBuf != nil {
		b.shmBuf.BeginAccess()
		return b.shmBuf.Data(), b.format, b.stride, true
	}
	return b.savedData, b.format, b.stride, true
}

// EndDataPtrAccess implements DataPtrSource.
func (b *ShmClientBuffer) EndDataPtrAccess() {
	if b.shmBuf != nil {
		b.shmBuf.EndAccess()
	}
}

// Shm implements ShmSource while the protocol object is alive.
func (b *ShmClientBuffer) Shm() (ShmAttributes, bool) {
	if b.shmBuf == nil {
		return ShmAttributes{}, false
	}
	return ShmAttributes{
		FD:     b.shmBuf.Pool().FD(),
		Format: b.format,
		Offset: b.shmBuf.Offset(),
		Stride: b.stride,
	}, true
}
