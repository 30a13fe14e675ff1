// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pixfmt maps platform pixel-format codes (DRM fourcc) to the
// properties the upload and import paths need: bytes per pixel, the GPU
// upload format, and whether the format carries alpha. It also converts
// shared-memory format codes to their platform equivalents.
package pixfmt

import (
	"github.com/gogpu/gputypes"
)

// Format is a platform pixel-format code (a DRM fourcc value).
type Format uint32

// FormatInvalid marks textures whose contents cannot be rewritten
// (imported textures have no meaningful upload format).
const FormatInvalid Format = 0

func fourcc(a, b, c, d byte) Format {
	return Format(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Supported platform formats. All are 32-bit single-plane formats with
// little-endian byte order.
var (
	ARGB8888 = fourcc('A', 'R', '2', '4')
	XRGB8888 = fourcc('X', 'R', '2', '4')
	ABGR8888 = fourcc('A', 'B', '2', '4')
	XBGR8888 = fourcc('X', 'B', '2', '4')
)

// Shared-memory format codes. The protocol reserves 0 and 1 for the two
// most common formats; every other shm code equals its fourcc value.
const (
	ShmARGB8888 uint32 = 0
	ShmXRGB8888 uint32 = 1
)

// Info describes a pixel format for upload purposes.
type Info struct {
	// BytesPerPixel is the storage size of one pixel.
	BytesPerPixel int

	// GPUFormat is the texture format pixel uploads use.
	GPUFormat gputypes.TextureFormat

	// HasAlpha reports whether the format carries an alpha channel.
	HasAlpha bool
}

var formats = map[Format]Info{}

func init() {
	formats[ARGB8888] = Info{4, gputypes.TextureFormatBGRA8Unorm, true}
	formats[XRGB8888] = Info{4, gputypes.TextureFormatBGRA8Unorm, false}
	formats[ABGR8888] = Info{4, gputypes.TextureFormatRGBA8Unorm, true}
	formats[XBGR8888] = Info{4, gputypes.TextureFormatRGBA8Unorm, false}
}

// Lookup returns the properties of a platform format code.
// ok is false for unknown codes.
func Lookup(f Format) (info Info, ok bool) {
	info, ok = formats[f]
	return info, ok
}

// FromShm converts a shared-memory format code to its platform code.
// Unknown codes convert to themselves; callers detect unsupported
// formats via Lookup on the result.
func FromShm(shm uint32) Format {
	switch shm {
	case ShmARGB8888:
		return ARGB8888
	case ShmXRGB8888:
		return XRGB8888
	default:
		return Format(shm)
	}
}

// ToShm converts a platform format code to its shared-memory code.
func ToShm(f Format) uint32 {
	switch f {
	case ARGB8888:
		return ShmARGB8888
	case XRGB8888:
		return ShmXRGB8888
	default:
		return uint32(f)
	}
}
