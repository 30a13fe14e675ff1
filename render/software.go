// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/wlbuf/dmabuf"
)

// Software device errors.
var (
	// ErrShortUpload is returned when upload data does not cover the
	// requested region.
	ErrShortUpload = errors.New("render: upload data too short for region")

	// ErrBadHandle is returned when a handle was not created by this
	// device.
	ErrBadHandle = errors.New("render: foreign device handle")

	// ErrRegionOutOfBounds is returned when an upload or readback
	// region exceeds the texture.
	ErrRegionOutOfBounds = errors.New("render: region out of texture bounds")
)

// SoftwareDevice is an in-memory Device: uploads land in RAM and can
// be read back with ReadPixels. It backs tests and CPU-only contexts.
//
// Imported images reference their descriptor set but have no pixel
// contents; sampling them is the caller's concern.
type SoftwareDevice struct {
	// ExternalOnly makes descriptor-set imports report external-only
	// sampling, mimicking platforms without native sampling support.
	ExternalOnly bool

	depth           int
	texturesLive    int
	imagesLive      int
	imagesCreated   int
	texturesCreated int
	binds           int
}

// SoftwareLegacyResource is the legacy external-resource handle the
// software device accepts.
type SoftwareLegacyResource struct {
	Width   int
	Height  int
	Format  LegacyFormat
	YInvert bool
}

type softwareTexture struct {
	format gputypes.TextureFormat
	width  int
	height int

	// pix is the tightly-packed pixel store; nil for imported textures.
	pix []byte

	image *softwareImage
}

type softwareImage struct {
	attrs  *dmabuf.Attributes
	legacy *SoftwareLegacyResource
}

// ContextDepth returns the current context activation depth. A
// balanced save/activate/restore discipline leaves it at zero between
// renderer calls.
func (d *SoftwareDevice) ContextDepth() int { return d.depth }

// TexturesLive returns the number of device textures not yet destroyed.
func (d *SoftwareDevice) TexturesLive() int { return d.texturesLive }

// ImagesLive returns the number of imported images not yet destroyed.
func (d *SoftwareDevice) ImagesLive() int { return d.imagesLive }

// ImagesCreated returns the total number of imported images.
func (d *SoftwareDevice) ImagesCreated() int { return d.imagesCreated }

// Binds returns the number of image re-binds performed.
func (d *SoftwareDevice) Binds() int { return d.binds }

// MakeCurrent implements Device.
func (d *SoftwareDevice) MakeCurrent() (restore func()) {
	d.depth++
	return func() { d.depth-- }
}

func bytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	default:
		return 4
	}
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(format gputypes.TextureFormat, stride, width, height int, data []byte) (TextureHandle, error) {
	bpp := bytesPerPixel(format)
	if len(data) < (height-1)*stride+width*bpp {
		return nil, fmt.Errorf("%w: have %d bytes", ErrShortUpload, len(data))
	}

	t := &softwareTexture{
		format: format,
		width:  width,
		height: height,
		pix:    make([]byte, width*height*bpp),
	}
	for y := 0; y < height; y++ {
		copy(t.pix[y*width*bpp:(y+1)*width*bpp], data[y*stride:y*stride+width*bpp])
	}

	d.texturesCreated++
	d.texturesLive++
	return t, nil
}

// UploadRegion implements Device.
func (d *SoftwareDevice) UploadRegion(tex TextureHandle, format gputypes.TextureFormat, stride, width, height, srcX, srcY, dstX, dstY int, data []byte) error {
	t, ok := tex.(*softwareTexture)
	if !ok || t.pix == nil {
		return ErrBadHandle
	}
	bpp := bytesPerPixel(format)
	if dstX < 0 || dstY < 0 || dstX+width > t.width || dstY+height > t.height {
		return fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			ErrRegionOutOfBounds, width, height, dstX, dstY, t.width, t.height)
	}
	if len(data) < (srcY+height-1)*stride+(srcX+width)*bpp {
		return fmt.Errorf("%w: have %d bytes", ErrShortUpload, len(data))
	}

	for y := 0; y < height; y++ {
		src := data[(srcY+y)*stride+srcX*bpp:]
		dst := t.pix[((dstY+y)*t.width+dstX)*bpp:]
		copy(dst[:width*bpp], src[:width*bpp])
	}
	return nil
}

// ReadPixels implements Device.
func (d *SoftwareDevice) ReadPixels(tex TextureHandle, format gputypes.TextureFormat, width, height, srcX, srcY int) ([]byte, error) {
	t, ok := tex.(*softwareTexture)
	if !ok || t.pix == nil {
		return nil, ErrBadHandle
	}
	bpp := bytesPerPixel(format)
	if srcX < 0 || srcY < 0 || srcX+width > t.width || srcY+height > t.height {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			ErrRegionOutOfBounds, width, height, srcX, srcY, t.width, t.height)
	}

	out := make([]byte, width*height*bpp)
	for y := 0; y < height; y++ {
		src := t.pix[((srcY+y)*t.width+srcX)*bpp:]
		copy(out[y*width*bpp:(y+1)*width*bpp], src[:width*bpp])
	}
	return out, nil
}

// ImportDMABuf implements Device.
func (d *SoftwareDevice) ImportDMABuf(attrs *dmabuf.Attributes) (ImageHandle, bool, error) {
	if attrs == nil || len(attrs.Planes) == 0 {
		return nil, false, fmt.Errorf("%w: empty descriptor set", ErrImportFailed)
	}
	d.imagesCreated++
	d.imagesLive++
	return &softwareImage{attrs: attrs}, d.ExternalOnly, nil
}

// ImportLegacy implements Device.
func (d *SoftwareDevice) ImportLegacy(resource any) (LegacyImage, error) {
	lr, ok := resource.(*SoftwareLegacyResource)
	if !ok {
		return LegacyImage{}, fmt.Errorf("%w: unrecognized legacy resource", ErrImportFailed)
	}
	d.imagesCreated++
	d.imagesLive++
	return LegacyImage{
		Image:   &softwareImage{legacy: lr},
		Format:  lr.Format,
		Width:   lr.Width,
		Height:  lr.Height,
		YInvert: lr.YInvert,
	}, nil
}

// CreateTextureFromImage implements Device.
func (d *SoftwareDevice) CreateTextureFromImage(img ImageHandle, target Target) (TextureHandle, error) {
	si, ok := img.(*softwareImage)
	if !ok {
		return nil, ErrBadHandle
	}
	t := &softwareTexture{image: si}
	switch {
	case si.attrs != nil:
		t.width, t.height = si.attrs.Width, si.attrs.Height
	case si.legacy != nil:
		t.width, t.height = si.legacy.Width, si.legacy.Height
	}
	d.texturesCreated++
	d.texturesLive++
	return t, nil
}

// BindImage implements Device.
func (d *SoftwareDevice) BindImage(tex TextureHandle, img ImageHandle, target Target) error {
	t, ok := tex.(*softwareTexture)
	if !ok {
		return ErrBadHandle
	}
	si, ok := img.(*softwareImage)
	if !ok {
		return ErrBadHandle
	}
	t.image = si
	d.binds++
	return nil
}

// DestroyTexture implements Device.
func (d *SoftwareDevice) DestroyTexture(tex TextureHandle) {
	if _, ok := tex.(*softwareTexture); ok {
		d.texturesLive--
	}
}

// DestroyImage implements Device.
func (d *SoftwareDevice) DestroyImage(img ImageHandle) {
	if img == nil {
		return
	}
	if _, ok := img.(*softwareImage); ok {
		d.imagesLive--
	}
}

var _ Device = (*SoftwareDevice)(nil)
