// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wlbuf

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/wlbuf/buffer"
	"github.com/gogpu/wlbuf/dmabuf"
	"github.com/gogpu/wlbuf/pixfmt"
	"github.com/gogpu/wlbuf/render"
)

var (
	// ErrUnknownBufferType is returned when a resource matches no
	// importable kind. A client submitting one is violating the
	// protocol; disconnecting it is the caller's job.
	ErrUnknownBufferType = errors.New("wlbuf: unknown buffer resource type")

	// ErrBufferBusy is returned by ApplyDamage when another consumer
	// still holds a lock on the buffer.
	ErrBufferBusy = errors.New("wlbuf: buffer locked by another consumer")

	// ErrDamageUnsupported is returned by ApplyDamage when the new
	// resource cannot update the existing texture in place and a full
	// re-import is needed instead.
	ErrDamageUnsupported = errors.New("wlbuf: damage cannot be applied to this buffer")
)

// ClientBuffer wraps a protocol buffer resource together with the
// texture sampled from it. It is what a compositor attaches to a
// surface on commit.
//
// The release acknowledgement is sent to the client at most once per
// resource: either by the import path itself (shared memory is copied
// during import, device memory is tracked by the renderer) or when the
// last lock goes away. ApplyDamage re-arms the buffer with a fresh
// resource.
type ClientBuffer struct {
	buffer.Buffer

	texture *render.Texture

	// resource is nil once the client has destroyed the protocol
	// object.
	resource         Resource
	resourceReleased bool

	resourceDestroy buffer.Listener
	release         buffer.Listener
}

// Import wraps res in a client buffer with a texture uploaded or
// imported through r.
//
// The returned buffer is already locked for the caller and marked
// dropped, so the caller's eventual Unlock both acknowledges the
// resource and destroys the buffer. On import failure the resource is
// released immediately so the client can reuse its storage.
func Import(r *render.Renderer, res Resource) (*ClientBuffer, error) {
	var (
		tex              *render.Texture
		err              error
		resourceReleased bool
	)

	switch res := res.(type) {
	case ShmResource:
		var scb *buffer.ShmClientBuffer
		scb, err = buffer.NewShmClientBuffer(res, res.ShmBuffer())
		if err != nil {
			return nil, err
		}
		// Hold the shm buffer across the upload, then hand its
		// lifetime to the renderer: the pixels are copied, so unless
		// the renderer kept a lock the buffer dies right here and the
		// resource gets its release.
		scb.Lock()
		scb.Drop()
		tex, err = r.TextureFromBuffer(&scb.Buffer)
		scb.Unlock()
		resourceReleased = true
	case DMABufResource:
		tex, err = r.TextureFromBuffer(&res.DMABufBuffer().Buffer)
		resourceReleased = true
	case LegacyResource:
		tex, err = r.TextureFromLegacyResource(res.LegacyHandle())
	default:
		slogger().Error("cannot import client buffer: unknown resource type")
		return nil, ErrUnknownBufferType
	}
	if err != nil {
		slogger().Error("failed to create texture from client buffer", "err", err)
		res.SendRelease()
		return nil, fmt.Errorf("wlbuf: import failed: %w", err)
	}

	b := &ClientBuffer{
		texture:          tex,
		resource:         res,
		resourceReleased: resourceReleased,
	}
	b.Init(b, tex.Width(), tex.Height())

	b.resourceDestroy.Notify = b.handleResourceDestroy
	res.DestroySignal().Add(&b.resourceDestroy)

	b.release.Notify = b.handleRelease
	b.ReleaseSignal().Add(&b.release)

	// Lock for the caller and schedule disposal now, so the release
	// acknowledgement always precedes destruction.
	b.Lock()
	b.Drop()
	return b, nil
}

// Texture returns the texture sampled from the client's pixels.
func (b *ClientBuffer) Texture() *render.Texture { return b.texture }

func (b *ClientBuffer) handleResourceDestroy(any) {
	// If the resource was device-memory backed, the texture may still
	// sample storage the client just orphaned. Keeping it readable
	// would mean copying on every import; we accept the risk of
	// sampling reused memory instead.
	b.resource = nil
	b.resourceDestroy.Remove()
}

func (b *ClientBuffer) handleRelease(any) {
	if !b.resourceReleased && b.resource != nil {
		b.resource.SendRelease()
		b.resourceReleased = true
	}
}

// Destroy implements buffer.Destroyer.
func (b *ClientBuffer) Destroy() {
	b.release.Remove()
	b.resourceDestroy.Remove()
	if b.texture != nil {
		b.texture.Release()
		b.texture = nil
	}
}

// DMABuf implements buffer.DMABufSource by proxying to the resource
// while it is alive and DMA-BUF backed.
func (b *ClientBuffer) DMABuf() (dmabuf.Attributes, bool) {
	res, ok := b.resource.(DMABufResource)
	if !ok {
		return dmabuf.Attributes{}, false
	}
	return res.DMABufBuffer().DMABuf()
}

// ApplyDamage updates the buffer's texture in place from a newly
// committed shared-memory resource, uploading only the damaged
// rectangles.
//
// It requires that the caller is the sole lock holder and that the new
// resource is shared memory matching the texture's format and size;
// anything else fails with ErrBufferBusy or ErrDamageUnsupported and
// the caller falls back to a full Import. A failed rectangle upload
// aborts the walk; earlier rectangles stay applied.
//
// On success the buffer wraps the new resource and its release is
// acknowledged immediately, since the pixels now live in the texture.
func (b *ClientBuffer) ApplyDamage(res Resource, damage []image.Rectangle) error {
	if b.LockCount() > 1 {
		return ErrBufferBusy
	}

	shmRes, ok := res.(ShmResource)
	if !ok {
		return fmt.Errorf("%w: resource is not shared memory", ErrDamageUnsupported)
	}
	sb := shmRes.ShmBuffer()
	if sb == nil {
		return fmt.Errorf("%w: resource has no shm backing", ErrDamageUnsupported)
	}

	format := pixfmt.FromShm(sb.Format())
	if format != b.texture.Format() {
		return fmt.Errorf("%w: format %#x does not match texture format %#x",
			ErrDamageUnsupported, uint32(format), uint32(b.texture.Format()))
	}
	if sb.Width() != b.texture.Width() || sb.Height() != b.texture.Height() {
		return fmt.Errorf("%w: %dx%d does not match texture %dx%d",
			ErrDamageUnsupported, sb.Width(), sb.Height(),
			b.texture.Width(), b.texture.Height())
	}

	sb.BeginAccess()
	data := sb.Data()
	stride := sb.Stride()
	for _, rect := range damage {
		err := b.texture.WritePixels(stride, rect.Dx(), rect.Dy(),
			rect.Min.X, rect.Min.Y, rect.Min.X, rect.Min.Y, data)
		if err != nil {
			sb.EndAccess()
			return fmt.Errorf("wlbuf: damage upload failed: %w", err)
		}
	}
	sb.EndAccess()

	// The buffer now wraps the new resource. Its pixels are on the
	// GPU, so the client may reuse the storage right away.
	b.resourceDestroy.Remove()
	res.DestroySignal().Add(&b.resourceDestroy)
	b.resource = res
	res.SendRelease()
	b.resourceReleased = true
	return nil
}
