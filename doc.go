// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wlbuf ties client-submitted pixel buffers to renderer
// textures.
//
// The subpackages split the work: buffer holds the reference-counted
// buffer core and its concrete backends, shm the shared-memory pools,
// dmabuf the device-memory descriptor sets, pixfmt the format
// registry, and render the per-context texture import pipeline. This
// package sits on top of all of them and models what a compositor does
// on surface commit: Import wraps a protocol buffer resource in a
// ClientBuffer with an uploaded or zero-copy texture, and ApplyDamage
// refreshes that texture in place when the client resubmits shared
// memory with a damage list.
package wlbuf
