package dmabuf

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wlbuf/pixfmt"
)

// newTestFD returns a real file descriptor the test can dup and close.
func newTestFD(t *testing.T) int {
	t.Helper()
	fd, err := unix.MemfdCreate("dmabuf-test", unix.MFD_CLOEXEC)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	return fd
}

func fdValid(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func TestCloneDuplicatesPlaneFDs(t *testing.T) {
	attrs := Attributes{
		Width:  64,
		Height: 64,
		Format: pixfmt.ARGB8888,
		Planes: []Plane{
			{FD: newTestFD(t), Offset: 0, Stride: 256},
			{FD: newTestFD(t), Offset: 16384, Stride: 256},
		},
	}
	defer attrs.Close()

	clone, err := attrs.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer clone.Close()

	if len(clone.Planes) != len(attrs.Planes) {
		t.Fatalf("clone has %d planes, want %d", len(clone.Planes), len(attrs.Planes))
	}
	for i := range clone.Planes {
		if clone.Planes[i].FD == attrs.Planes[i].FD {
			t.Errorf("plane %d fd not duplicated", i)
		}
		if clone.Planes[i].Offset != attrs.Planes[i].Offset ||
			clone.Planes[i].Stride != attrs.Planes[i].Stride {
			t.Errorf("plane %d layout not preserved", i)
		}
	}

	// Closing the original leaves the clone's descriptors open.
	cloneFD := clone.Planes[0].FD
	attrs.Close()
	if !fdValid(cloneFD) {
		t.Error("clone fd closed with original")
	}
}

func TestCloneFailureClosesPartialDup(t *testing.T) {
	good := newTestFD(t)
	defer unix.Close(good)

	attrs := Attributes{
		Width:  8,
		Height: 8,
		Format: pixfmt.XRGB8888,
		Planes: []Plane{
			{FD: good, Stride: 32},
			{FD: -1, Stride: 32}, // dup fails here
		},
	}

	if _, err := attrs.Clone(); err == nil {
		t.Fatal("Clone with invalid fd succeeded")
	}
	// The original descriptor must not have been touched.
	if !fdValid(good) {
		t.Error("original fd closed by failed Clone")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	attrs := Attributes{
		Planes: []Plane{{FD: newTestFD(t), Stride: 32}},
	}
	attrs.Close()
	attrs.Close()
	if attrs.Planes != nil {
		t.Error("planes not cleared by Close")
	}
}

func TestCloneTooManyPlanes(t *testing.T) {
	attrs := Attributes{Planes: make([]Plane, MaxPlanes+1)}
	if _, err := attrs.Clone(); err == nil {
		t.Error("Clone accepted more than MaxPlanes planes")
	}
}
