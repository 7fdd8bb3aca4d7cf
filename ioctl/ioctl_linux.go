package ioctl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// To decode a hex IOCTL code:
//
// Most architectures use this generic format, but check
// include/ARCH/ioctl.h for specifics, e.g. powerpc
// uses 3 bits to encode read/write and 13 bits for size.
//
//  bits    meaning
//  31-30	00 - no parameters: uses _IO macro
// 	10 - read: _IOR
// 	01 - write: _IOW
// 	11 - read/write: _IOWR
//
//  29-16	size of arguments
//
//  15-8	ascii character supposedly
// 	unique to each driver
//
//  7-0	function #
//
// So for example 0x82187201 is a read with arg length of 0x218,
// character 'r' function 1. Grepping the source reveals this is:
//
// #define VFAT_IOCTL_READDIR_BOTH         _IOR('r', 1, struct dirent [2])
// source: https://www.kernel.org/doc/Documentation/ioctl/ioctl-decoding.txt

const (
	None  = uint8(0x0)
	Write = uint8(0x1)
	Read  = uint8(0x2)
)

func NewCode(typ uint8, sz uint16, uniq, fn uint8) uint32 {
	var code uint32
	if typ > Write|Read {
		panic(fmt.Errorf("invalid ioctl code value: %d\n", typ))
	}

	if sz >= 1<<14 {
		panic(fmt.Errorf("invalid ioctl size value: %d\n", sz))
	}

	code = code | (uint32(typ) << 30)
	code = code | (uint32(sz) << 16) // sz has 14bits
	code = code | (uint32(uniq) << 8)
	code = code | uint32(fn)
	return code
}

// Device performs numbered requests against an open DRM file.
// arg points to the fixed-layout record of the request and is only
// valid for the duration of the call.
type Device interface {
	Ioctl(code uint32, arg unsafe.Pointer) error
}

// Error is the failure of a single ioctl. It unwraps to the errno
// returned by the kernel.
type Error struct {
	Code  uint32
	Errno unix.Errno
}

func (e *Error) Error() string {
	return fmt.Sprintf("drm ioctl (code=0x%x): %s", e.Code, e.Errno.Error())
}

func (e *Error) Unwrap() error {
	return e.Errno
}

// Do issues the ioctl on fd.
func Do(fd uintptr, code uint32, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(code), uintptr(arg))
	if errno != 0 {
		return &Error{Code: code, Errno: errno}
	}
	return nil
}
