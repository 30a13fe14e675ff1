package render

import "errors"

// Renderer and texture errors.
var (
	// ErrNilDevice is returned when creating a renderer without a device.
	ErrNilDevice = errors.New("render: device is nil")

	// ErrUnsupportedFormat is returned for pixel-format codes the
	// format registry does not know.
	ErrUnsupportedFormat = errors.New("render: unsupported pixel format")

	// ErrInvalidStride is returned when a stride is zero, smaller than
	// one row of pixels, or not a multiple of the pixel size.
	ErrInvalidStride = errors.New("render: invalid stride")

	// ErrImportFailed is returned when the device rejects a
	// device-memory descriptor set or a legacy resource.
	ErrImportFailed = errors.New("render: image import failed")

	// ErrNoCapability is returned when a buffer offers neither
	// zero-copy export nor data-pointer access.
	ErrNoCapability = errors.New("render: buffer provides no import path")

	// ErrImmutableTexture is returned when writing pixels to a texture
	// that was not created by pixel upload.
	ErrImmutableTexture = errors.New("render: cannot write pixels to immutable texture")

	// ErrNotImported is returned when invalidating a texture that has
	// no bound image.
	ErrNotImported = errors.New("render: texture has no imported image")
)
