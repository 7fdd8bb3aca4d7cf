// Package fake provides a scripted ioctl.Device standing in for the
// kernel in unit tests.
package fake

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm/ioctl"
)

// Handler answers one ioctl. arg points to the request record.
type Handler func(arg unsafe.Pointer) error

// Device dispatches each ioctl code to its handler and records the
// sequence of codes it saw.
type Device struct {
	Handlers map[uint32]Handler
	Calls    []uint32
}

func New() *Device {
	return &Device{Handlers: make(map[uint32]Handler)}
}

// On registers h for code and returns d.
func (d *Device) On(code uint32, h Handler) *Device {
	d.Handlers[code] = h
	return d
}

func (d *Device) Ioctl(code uint32, arg unsafe.Pointer) error {
	d.Calls = append(d.Calls, code)
	h, ok := d.Handlers[code]
	if !ok {
		return &ioctl.Error{Code: code, Errno: unix.ENOTTY}
	}
	if err := h(arg); err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return &ioctl.Error{Code: code, Errno: errno}
		}
		return err
	}
	return nil
}

// Count returns how many times code was issued.
func (d *Device) Count(code uint32) int {
	n := 0
	for _, c := range d.Calls {
		if c == code {
			n++
		}
	}
	return n
}

// CopyOut behaves like the kernel side of a count/pointer pair: src is
// copied to ptr only when the caller's capacity can hold all of it, and
// the true length is returned for the count field.
func CopyOut[T any](ptr uint64, capacity uint32, src []T) uint32 {
	if ptr != 0 && len(src) > 0 && int(capacity) >= len(src) {
		dst := unsafe.Slice((*T)(unsafe.Pointer(uintptr(ptr))), int(capacity))
		copy(dst, src)
	}
	return uint32(len(src))
}

// CopyIn reads n elements from ptr, as the kernel does for input arrays.
func CopyIn[T any](ptr uint64, n uint32) []T {
	if ptr == 0 || n == 0 {
		return nil
	}
	src := unsafe.Slice((*T)(unsafe.Pointer(uintptr(ptr))), int(n))
	return append([]T(nil), src...)
}

// GrowingStack wraps h so that the goroutine stack is grown, and thereby
// copied to a new location, before h looks at the record. Any array the
// record points at that still lived on the old stack is gone by then.
func GrowingStack(h Handler) Handler {
	return func(arg unsafe.Pointer) error {
		growStack(512)
		return h(arg)
	}
}

// growStack recurses through about n KiB of frames.
//
//go:noinline
func growStack(n int) byte {
	var frame [1024]byte
	frame[n%len(frame)] = byte(n)
	if n <= 0 {
		return frame[0]
	}
	return frame[n%len(frame)] + growStack(n-1)
}
