// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/wlbuf/buffer"
	"github.com/gogpu/wlbuf/pixfmt"
)

// Texture is a GPU-resident image owned by a Renderer: either a
// mutable pixel-uploaded texture or an immutable zero-copy import.
//
// A texture imported from a buffer holds one lock on that buffer and a
// weak back-reference used for cache lookup; it is torn down by the
// buffer's destroy event, never by an ordinary Release of its
// consumer.
type Texture struct {
	renderer *Renderer

	width    int
	height   int
	hasAlpha bool
	yInvert  bool

	// format is the upload format code; FormatInvalid for imported
	// textures, which cannot be rewritten.
	format pixfmt.Format
	target Target

	tex   TextureHandle
	image ImageHandle

	buffer        *buffer.Buffer
	bufferDestroy buffer.Listener

	destroyed bool
}

// TextureAttribs exposes what a sampler needs to consume the texture.
type TextureAttribs struct {
	Target   Target
	Texture  TextureHandle
	HasAlpha bool
	YInvert  bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Target returns the texture's sampling target kind.
func (t *Texture) Target() Target { return t.target }

// Format returns the upload format code, or pixfmt.FormatInvalid for
// imported textures.
func (t *Texture) Format() pixfmt.Format { return t.format }

// IsOpaque reports whether the texture has no alpha channel.
func (t *Texture) IsOpaque() bool { return !t.hasAlpha }

// Attribs returns the sampling attributes.
func (t *Texture) Attribs() TextureAttribs {
	return TextureAttribs{
		Target:   t.target,
		Texture:  t.tex,
		HasAlpha: t.hasAlpha,
		YInvert:  t.yInvert,
	}
}

// checkStride rejects strides that are zero, not a multiple of the
// pixel size, or too small for one row, before any device call.
func checkStride(info pixfmt.Info, stride, width int) error {
	bpp := info.BytesPerPixel
	if stride <= 0 || stride%bpp != 0 {
		return fmt.Errorf("%w: %d is not a positive multiple of %d bytes per pixel",
			ErrInvalidStride, stride, bpp)
	}
	if stride < width*bpp {
		return fmt.Errorf("%w: %d is too small for width %d at %d bytes per pixel",
			ErrInvalidStride, stride, width, bpp)
	}
	return nil
}

// WritePixels rewrites a width x height sub-region of the texture at
// (dstX, dstY) from data, reading from row srcY, column srcX, with
// rows stride bytes apart. Only mutable pixel-uploaded textures accept
// writes. The stride is validated before any device call.
func (t *Texture) WritePixels(stride, width, height, srcX, srcY, dstX, dstY int, data []byte) error {
	if t.target != TargetMutable2D || t.image != nil {
		return ErrImmutableTexture
	}

	info, ok := pixfmt.Lookup(t.format)
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnsupportedFormat, uint32(t.format))
	}
	if err := checkStride(info, stride, width); err != nil {
		return err
	}

	restore := t.renderer.dev.MakeCurrent()
	defer restore()

	return t.renderer.dev.UploadRegion(t.tex, info.GPUFormat,
		stride, width, height, srcX, srcY, dstX, dstY, data)
}

// Invalidate re-binds the imported image so subsequent sampling
// observes the memory's current contents. Required before sampling a
// re-presented imported texture, except for external-only targets,
// where the driver observes external writes immediately and Invalidate
// is a no-op.
func (t *Texture) Invalidate() error {
	if t.image == nil {
		return ErrNotImported
	}
	if t.target == TargetImportedExternalOnly {
		return nil
	}

	restore := t.renderer.dev.MakeCurrent()
	defer restore()

	return t.renderer.dev.BindImage(t.tex, t.image, t.target)
}

// Release gives up the consumer's use of the texture. A buffer-backed
// texture stays cached for reuse and only releases its buffer lock;
// its teardown happens when the buffer is finally destroyed. A
// one-shot texture is destroyed immediately.
func (t *Texture) Release() {
	if t.buffer != nil {
		t.buffer.Unlock()
		return
	}
	t.teardown(false)
}

// teardown releases the device resources exactly once and removes the
// texture from its renderer. unlockBuffer is set during renderer mass
// teardown, where the texture still holds its source-buffer lock;
// teardown driven by the buffer's own destroy event must not touch the
// buffer again.
func (t *Texture) teardown(unlockBuffer bool) {
	if t.destroyed {
		return
	}
	t.destroyed = true

	t.bufferDestroy.Remove()
	buf := t.buffer
	t.buffer = nil
	t.renderer.forget(t, buf)

	restore := t.renderer.dev.MakeCurrent()
	t.renderer.dev.DestroyTexture(t.tex)
	if t.image != nil {
		t.renderer.dev.DestroyImage(t.image)
		t.image = nil
	}
	restore()

	if unlockBuffer && buf != nil {
		buf.Unlock()
	}
}
