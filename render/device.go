// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/wlbuf/dmabuf"
)

// Target selects the sampling semantics of a texture.
type Target int

const (
	// TargetMutable2D is an ordinary 2D texture whose pixels were
	// uploaded and can be rewritten.
	TargetMutable2D Target = iota

	// TargetImportedNative is a zero-copy imported texture the
	// platform can sample like any other texture.
	TargetImportedNative

	// TargetImportedExternalOnly is a zero-copy imported texture that
	// may only be consumed via external-image sampling semantics and
	// cannot serve as an arbitrary render target. The driver observes
	// writes to the external memory immediately.
	TargetImportedExternalOnly
)

// String returns the target name for logs.
func (t Target) String() string {
	switch t {
	case TargetMutable2D:
		return "mutable-2d"
	case TargetImportedNative:
		return "imported-native"
	case TargetImportedExternalOnly:
		return "imported-external-only"
	default:
		return "unknown"
	}
}

// TextureHandle is an opaque device texture resource.
type TextureHandle any

// ImageHandle is an opaque handle binding a texture target to
// externally-owned device memory.
type ImageHandle any

// LegacyFormat is the pixel-format enum reported by a legacy
// external-resource import.
type LegacyFormat int

const (
	// LegacyRGB is opaque legacy content.
	LegacyRGB LegacyFormat = iota
	// LegacyRGBA is legacy content with alpha.
	LegacyRGBA
	// LegacyExternal is legacy content requiring external sampling.
	LegacyExternal
)

// LegacyImage is the result of importing a legacy external resource.
type LegacyImage struct {
	Image   ImageHandle
	Format  LegacyFormat
	Width   int
	Height  int
	YInvert bool
}

// Device is the GPU and device-memory import service a Renderer drives.
//
// Every Renderer entry point that touches device state brackets the
// work in MakeCurrent so the caller's previously-active context is
// restored on every exit path. Submission is synchronous from the
// caller's point of view; execution on the device is asynchronous.
type Device interface {
	// MakeCurrent saves the currently-active context, activates this
	// device's context, and returns the function restoring the saved
	// one. Callers invoke it as:
	//
	//	restore := dev.MakeCurrent()
	//	defer restore()
	MakeCurrent() (restore func())

	// CreateTexture allocates a mutable 2D texture and performs a full
	// upload of data, whose rows are stride bytes apart. The stride
	// has been validated against format before the call.
	CreateTexture(format gputypes.TextureFormat, stride, width, height int, data []byte) (TextureHandle, error)

	// UploadRegion rewrites a width x height sub-region of a mutable
	// texture at (dstX, dstY), reading from data starting at row srcY,
	// column srcX, with rows stride bytes apart.
	UploadRegion(tex TextureHandle, format gputypes.TextureFormat, stride, width, height, srcX, srcY, dstX, dstY int, data []byte) error

	// ReadPixels returns the tightly-packed contents of a width x
	// height region of a texture starting at (srcX, srcY).
	ReadPixels(tex TextureHandle, format gputypes.TextureFormat, width, height, srcX, srcY int) ([]byte, error)

	// ImportDMABuf creates an image from a device-memory descriptor
	// set. externalOnly reports that the image can only be sampled
	// with external-image semantics.
	ImportDMABuf(attrs *dmabuf.Attributes) (img ImageHandle, externalOnly bool, err error)

	// ImportLegacy creates an image from a legacy external resource
	// handle (the pre-descriptor-set sharing path).
	ImportLegacy(resource any) (LegacyImage, error)

	// CreateTextureFromImage creates a texture bound to an imported
	// image with the given target semantics.
	CreateTextureFromImage(img ImageHandle, target Target) (TextureHandle, error)

	// BindImage re-binds an imported image to a texture so subsequent
	// sampling observes the memory's current contents.
	BindImage(tex TextureHandle, img ImageHandle, target Target) error

	// DestroyTexture releases a texture resource.
	DestroyTexture(tex TextureHandle)

	// DestroyImage releases an imported image. Passing nil is a no-op.
	DestroyImage(img ImageHandle)
}
