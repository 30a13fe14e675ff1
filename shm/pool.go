// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shm provides reference-counted shared-memory pools and the
// buffers carved from them. A pool is a memory-mapped file descriptor
// shared between a client and the compositor; buffers describe
// width/height/stride/format sub-regions of the mapping.
package shm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Pool errors.
var (
	// ErrPoolClosed is returned when operating on an unmapped pool.
	ErrPoolClosed = errors.New("shm: pool has been closed")

	// ErrOutOfBounds is returned when a buffer does not fit in its pool.
	ErrOutOfBounds = errors.New("shm: buffer region out of pool bounds")

	// ErrInvalidSize is returned for non-positive pool sizes.
	ErrInvalidSize = errors.New("shm: invalid pool size")
)

// Pool is a reference-counted memory mapping shared with a client.
//
// The pool starts with one reference. Ref/Unref adjust the count; the
// mapping and the file descriptor are released when the count reaches
// zero. Holders that need the mapping to outlive the protocol object
// (for example a buffer whose resource was destroyed while the
// compositor still reads it) take their own reference.
type Pool struct {
	fd   int
	data []byte
	size int
	refs int
}

// NewPool creates a pool backed by a fresh anonymous file.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	fd, err := unix.MemfdCreate("wlbuf-shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate: %w", err)
	}
	p, err := PoolFromFD(fd, size)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return p, nil
}

// PoolFromFD maps an existing file descriptor, typically one received
// from a client. The pool takes ownership of fd.
func PoolFromFD(fd, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}
	return &Pool{fd: fd, data: data, size: size, refs: 1}, nil
}

// Ref takes an additional reference and returns the pool.
func (p *Pool) Ref() *Pool {
	p.refs++
	return p
}

// Unref drops a reference. The mapping is unmapped and the file
// descriptor closed when the last reference is dropped.
//
// Unref panics if called more times than Ref (plus the initial
// reference).
func (p *Pool) Unref() {
	if p.refs <= 0 {
		panic("shm: pool reference count underflow")
	}
	p.refs--
	if p.refs > 0 {
		return
	}
	if p.data != nil {
		_ = unix.Munmap(p.data)
		p.data = nil
	}
	if p.fd >= 0 {
		_ = unix.Close(p.fd)
		p.fd = -1
	}
}

// Data returns the mapped region, or nil once the pool is closed.
func (p *Pool) Data() []byte { return p.data }

// FD returns the pool's file descriptor, or -1 once closed.
func (p *Pool) FD() int { return p.fd }

// Size returns the pool size in bytes.
func (p *Pool) Size() int { return p.size }

// Buffer describes a sub-region of a pool holding one image.
type Buffer struct {
	pool      *Pool
	offset    int
	width     int
	height    int
	stride    int
	shmFormat uint32

	accessing int
}

// NewBuffer carves a buffer out of the pool. The region
// [offset, offset+height*stride) must lie within the pool.
//
// The buffer borrows the pool; callers that need the mapping to
// survive the pool's owner take a Ref themselves.
func (p *Pool) NewBuffer(offset, width, height, stride int, shmFormat uint32) (*Buffer, error) {
	if p.data == nil {
		return nil, ErrPoolClosed
	}
	if offset < 0 || width <= 0 || height <= 0 || stride < width {
		return nil, fmt.Errorf("%w: offset=%d %dx%d stride=%d",
			ErrOutOfBounds, offset, width, height, stride)
	}
	if offset+height*stride > p.size {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, pool has %d",
			ErrOutOfBounds, height*stride, offset, p.size)
	}
	return &Buffer{
		pool:      p,
		offset:    offset,
		width:     width,
		height:    height,
		stride:    stride,
		shmFormat: shmFormat,
	}, nil
}

// Pool returns the buffer's backing pool.
func (b *Buffer) Pool() *Pool { return b.pool }

// Offset returns the buffer's byte offset into the pool.
func (b *Buffer) Offset() int { return b.offset }

// Width returns the image width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *Buffer) Height() int { return b.height }

// Stride returns the row length in bytes.
func (b *Buffer) Stride() int { return b.stride }

// Format returns the shared-memory format code.
func (b *Buffer) Format() uint32 { return b.shmFormat }

// Data returns the buffer's slice of the pool mapping, or nil once the
// pool is closed.
func (b *Buffer) Data() []byte {
	if b.pool.data == nil {
		return nil
	}
	return b.pool.data[b.offset : b.offset+b.height*b.stride]
}

// BeginAccess brackets a read of the buffer contents. Calls nest.
func (b *Buffer) BeginAccess() { b.accessing++ }

// EndAccess ends a read started with BeginAccess.
func (b *Buffer) EndAccess() {
	if b.accessing == 0 {
		panic("shm: EndAccess without BeginAccess")
	}
	b.accessing--
}
