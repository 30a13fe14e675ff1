// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wlbuf

import (
	"github.com/gogpu/wlbuf/buffer"
	"github.com/gogpu/wlbuf/shm"
)

// Resource is a protocol buffer resource as seen by the import layer:
// something that can be released back to the client and that announces
// its own destruction. Protocol dispatch lives elsewhere.
type Resource = buffer.Resource

// ShmResource is a resource backed by a shared-memory pool region.
type ShmResource interface {
	Resource

	// ShmBuffer returns the pool region the resource describes, or nil
	// if the backing is already gone.
	ShmBuffer() *shm.Buffer
}

// DMABufResource is a resource backed by a device-memory descriptor
// set. The descriptor set lives in a DMABufBuffer whose lifetime the
// protocol layer manages alongside the resource.
type DMABufResource interface {
	Resource

	DMABufBuffer() *buffer.DMABufBuffer
}

// LegacyResource is a resource using the legacy driver-mediated
// sharing path. The handle is opaque to this package and understood
// only by the rendering device.
type LegacyResource interface {
	Resource

	LegacyHandle() any
	Size() (width, height int)
}

// ResourceBufferSize returns the pixel size of the image a resource
// carries. ok is false for resource kinds this package cannot import.
func ResourceBufferSize(res Resource) (width, height int, ok bool) {
	switch res := res.(type) {
	case ShmResource:
		sb := res.ShmBuffer()
		if sb == nil {
			return 0, 0, false
		}
		return sb.Width(), sb.Height(), true
	case DMABufResource:
		db := res.DMABufBuffer()
		if db == nil {
			return 0, 0, false
		}
		return db.Width(), db.Height(), true
	case LegacyResource:
		width, height = res.Size()
		return width, height, true
	}
	return 0, 0, false
}
