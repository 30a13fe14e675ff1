// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns pixel buffers into GPU-sampleable textures.
//
// A Renderer owns one rendering context's live textures. Importing a
// buffer prefers zero-copy (binding an image to the buffer's device
// memory) and falls back to a pixel upload through the buffer's data
// pointer. Imported textures are cached per source buffer: presenting
// the same buffer again reuses the existing texture instead of
// creating a second image.
//
// The model is single-threaded and cooperative per rendering context;
// every entry point that touches device state saves and restores the
// caller's active context around its own work.
package render

import (
	"fmt"

	"github.com/gogpu/wlbuf/buffer"
	"github.com/gogpu/wlbuf/dmabuf"
	"github.com/gogpu/wlbuf/pixfmt"
)

// Renderer is a per-rendering-context texture registry and import
// pipeline.
type Renderer struct {
	dev Device

	// textures holds every live texture owned by this context.
	textures map[*Texture]struct{}

	// byBuffer indexes imported textures by source buffer for reuse.
	byBuffer map[*buffer.Buffer]*Texture
}

// NewRenderer creates a renderer driving dev.
func NewRenderer(dev Device) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	return &Renderer{
		dev:      dev,
		textures: make(map[*Texture]struct{}),
		byBuffer: make(map[*buffer.Buffer]*Texture),
	}, nil
}

// Device returns the device the renderer drives.
func (r *Renderer) Device() Device { return r.dev }

// TextureCount returns the number of live textures in this context.
func (r *Renderer) TextureCount() int { return len(r.textures) }

// forget drops a texture from the registries. Called from teardown.
func (r *Renderer) forget(t *Texture, buf *buffer.Buffer) {
	delete(r.textures, t)
	if buf != nil {
		delete(r.byBuffer, buf)
	}
}

// TextureFromBuffer imports a buffer into a texture.
//
// Zero-copy import is preferred; the resulting texture is cached and
// reused on repeated presentations of the same buffer, with the
// buffer's lock count raised by one per import. Buffers without
// zero-copy export but with data-pointer access are uploaded into a
// one-shot mutable texture owned solely by the caller. Buffers with
// neither capability fail with ErrNoCapability.
func (r *Renderer) TextureFromBuffer(buf *buffer.Buffer) (*Texture, error) {
	if attrs, ok := buf.DMABuf(); ok {
		return r.textureFromDMABufBuffer(buf, &attrs)
	}
	if data, format, stride, ok := buf.BeginDataPtrAccess(); ok {
		t, err := r.TextureFromPixels(format, stride, buf.Width(), buf.Height(), data)
		buf.EndDataPtrAccess()
		return t, err
	}
	return nil, ErrNoCapability
}

// textureFromDMABufBuffer is the cached zero-copy import path.
func (r *Renderer) textureFromDMABufBuffer(buf *buffer.Buffer, attrs *dmabuf.Attributes) (*Texture, error) {
	if t, ok := r.byBuffer[buf]; ok {
		if err := t.Invalidate(); err != nil {
			slogger().Error("failed to invalidate cached texture", "err", err)
			return nil, err
		}
		buf.Lock()
		return t, nil
	}

	t, err := r.TextureFromDMABuf(attrs)
	if err != nil {
		return nil, err
	}

	t.buffer = buf.Lock()
	t.bufferDestroy.Notify = func(any) { t.teardown(false) }
	buf.DestroySignal().Add(&t.bufferDestroy)
	r.byBuffer[buf] = t

	return t, nil
}

// TextureFromDMABuf imports a device-memory descriptor set into a new
// texture. The result is not associated with any buffer; use
// TextureFromBuffer for the cached path.
func (r *Renderer) TextureFromDMABuf(attrs *dmabuf.Attributes) (*Texture, error) {
	restore := r.dev.MakeCurrent()
	defer restore()

	img, externalOnly, err := r.dev.ImportDMABuf(attrs)
	if err != nil {
		slogger().Error("failed to import DMA-BUF image", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	target := TargetImportedNative
	if externalOnly {
		target = TargetImportedExternalOnly
	}

	tex, err := r.dev.CreateTextureFromImage(img, target)
	if err != nil {
		r.dev.DestroyImage(img)
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	t := &Texture{
		renderer: r,
		width:    attrs.Width,
		height:   attrs.Height,
		hasAlpha: true,
		yInvert:  attrs.Flags&dmabuf.FlagYInvert != 0,
		format:   pixfmt.FormatInvalid,
		target:   target,
		tex:      tex,
		image:    img,
	}
	r.textures[t] = struct{}{}
	return t, nil
}

// TextureFromPixels uploads pixel data into a new mutable texture.
// The format must be known to the registry and the stride valid for
// it; both are checked before any device call.
func (r *Renderer) TextureFromPixels(format pixfmt.Format, stride, width, height int, data []byte) (*Texture, error) {
	info, ok := pixfmt.Lookup(format)
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedFormat, uint32(format))
	}
	if err := checkStride(info, stride, width); err != nil {
		return nil, err
	}

	restore := r.dev.MakeCurrent()
	defer restore()

	tex, err := r.dev.CreateTexture(info.GPUFormat, stride, width, height, data)
	if err != nil {
		return nil, err
	}

	t := &Texture{
		renderer: r,
		width:    width,
		height:   height,
		hasAlpha: info.HasAlpha,
		format:   format,
		target:   TargetMutable2D,
		tex:      tex,
	}
	r.textures[t] = struct{}{}
	return t, nil
}

// TextureFromLegacyResource imports a legacy external resource (the
// pre-descriptor-set sharing path). The device reports the content
// format, dimensions and orientation.
func (r *Renderer) TextureFromLegacyResource(resource any) (*Texture, error) {
	restore := r.dev.MakeCurrent()
	defer restore()

	li, err := r.dev.ImportLegacy(resource)
	if err != nil {
		slogger().Error("failed to import legacy resource", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	var hasAlpha bool
	switch li.Format {
	case LegacyRGB:
		hasAlpha = false
	case LegacyRGBA, LegacyExternal:
		hasAlpha = true
	default:
		r.dev.DestroyImage(li.Image)
		return nil, fmt.Errorf("%w: invalid legacy content format %d", ErrImportFailed, li.Format)
	}

	tex, err := r.dev.CreateTextureFromImage(li.Image, TargetImportedExternalOnly)
	if err != nil {
		r.dev.DestroyImage(li.Image)
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	t := &Texture{
		renderer: r,
		width:    li.Width,
		height:   li.Height,
		hasAlpha: hasAlpha,
		yInvert:  li.YInvert,
		format:   pixfmt.FormatInvalid,
		target:   TargetImportedExternalOnly,
		tex:      tex,
		image:    li.Image,
	}
	r.textures[t] = struct{}{}
	return t, nil
}

// Destroy tears down every remaining texture in this context. Cached
// buffer-backed textures release their buffer locks.
func (r *Renderer) Destroy() {
	remaining := make([]*Texture, 0, len(r.textures))
	for t := range r.textures {
		remaining = append(remaining, t)
	}
	for _, t := range remaining {
		t.teardown(true)
	}
}
