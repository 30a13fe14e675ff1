// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package dmabuf describes device-memory descriptor sets: kernel-mediated
// file descriptors that let a GPU sample client-owned memory without
// copying pixel contents.
package dmabuf

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wlbuf/pixfmt"
)

// MaxPlanes is the maximum number of planes in one descriptor set.
const MaxPlanes = 4

// Flags alter how an importer interprets the descriptor set.
type Flags uint32

const (
	// FlagYInvert marks content stored bottom-up.
	FlagYInvert Flags = 1 << iota
	// FlagInterlaced marks interlaced content.
	FlagInterlaced
	// FlagBottomFirst marks interlaced content with the bottom field first.
	FlagBottomFirst
)

// ErrTooManyPlanes is returned when a descriptor set exceeds MaxPlanes.
var ErrTooManyPlanes = errors.New("dmabuf: too many planes")

// Plane is one memory plane of a descriptor set.
type Plane struct {
	// FD is the kernel handle referencing the device memory.
	FD int

	// Offset is the plane's byte offset into the memory object.
	Offset uint32

	// Stride is the plane's row length in bytes.
	Stride uint32
}

// Attributes is a device-memory descriptor set: everything an importer
// needs to bind a texture to the underlying memory.
type Attributes struct {
	Width    int
	Height   int
	Format   pixfmt.Format
	Modifier uint64
	Flags    Flags
	Planes   []Plane
}

// Clone duplicates the descriptor set, including every plane's file
// descriptor, so the kernel object stays referenced independently of
// the original. On failure any descriptors duplicated so far are
// closed and the error is returned.
func (a *Attributes) Clone() (Attributes, error) {
	if len(a.Planes) > MaxPlanes {
		return Attributes{}, fmt.Errorf("%w: %d", ErrTooManyPlanes, len(a.Planes))
	}

	out := *a
	out.Planes = make([]Plane, 0, len(a.Planes))
	for i, p := range a.Planes {
		fd, err := unix.FcntlInt(uintptr(p.FD), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			for _, dup := range out.Planes {
				_ = unix.Close(dup.FD)
			}
			return Attributes{}, fmt.Errorf("dmabuf: dup plane %d fd %d: %w", i, p.FD, err)
		}
		out.Planes = append(out.Planes, Plane{FD: fd, Offset: p.Offset, Stride: p.Stride})
	}
	return out, nil
}

// Close releases every plane descriptor. Safe to call on a zero value;
// calling it twice on the same set is a no-op for planes already closed.
func (a *Attributes) Close() {
	for i := range a.Planes {
		if a.Planes[i].FD >= 0 {
			_ = unix.Close(a.Planes[i].FD)
			a.Planes[i].FD = -1
		}
	}
	a.Planes = nil
}
