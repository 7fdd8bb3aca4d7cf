package mode

import (
	"unsafe"

	"github.com/mrshiposha/drm/ioctl"
)

// The legacy cursor ioctls predate planes. They keep working on most
// drivers, but new code should drive a cursor plane with SetPlane or an
// atomic commit instead.

const (
	CursorBO   = 0x01
	CursorMove = 0x02
)

type (
	sysCursor struct {
		flags  uint32
		crtcID uint32
		x, y   int32
		width  uint32
		height uint32
		// driver specific handle
		handle uint32
	}

	sysCursor2 struct {
		flags      uint32
		crtcID     uint32
		x, y       int32
		width      uint32
		height     uint32
		handle     uint32
		hotX, hotY int32
	}
)

// SetCursor sets the cursor image of crtcid to buffer object bo. The
// buffer must come from the driver's buffer manager; dumb buffers are
// rejected by most drivers. A zero bo hides the cursor.
//
// Deprecated: use a cursor plane.
func SetCursor(dev ioctl.Device, crtcid Handle, bo, width, height uint32) error {
	cursor := &sysCursor{
		flags:  CursorBO,
		crtcID: uint32(crtcid),
		width:  width,
		height: height,
		handle: bo,
	}
	return dev.Ioctl(IOCTLModeCursor, unsafe.Pointer(cursor))
}

// SetCursor2 is SetCursor with a hotspot, used by virtual machine
// drivers to line up guest and host cursors.
//
// Deprecated: use a cursor plane.
func SetCursor2(dev ioctl.Device, crtcid Handle, bo, width, height uint32, hotX, hotY int32) error {
	cursor := &sysCursor2{
		flags:  CursorBO,
		crtcID: uint32(crtcid),
		width:  width,
		height: height,
		handle: bo,
		hotX:   hotX,
		hotY:   hotY,
	}
	return dev.Ioctl(IOCTLModeCursor2, unsafe.Pointer(cursor))
}

// MoveCursor moves the cursor of crtcid.
//
// Deprecated: use a cursor plane.
func MoveCursor(dev ioctl.Device, crtcid Handle, x, y int32) error {
	cursor := &sysCursor{
		flags:  CursorMove,
		crtcID: uint32(crtcid),
		x:      x,
		y:      y,
	}
	return dev.Ioctl(IOCTLModeCursor, unsafe.Pointer(cursor))
}
