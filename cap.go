package drm

import (
	"unsafe"

	"github.com/mrshiposha/drm/ioctl"
)

type (
	capability struct {
		cap uint64
		val uint64
	}
)

const (
	CapDumbBuffer = iota + 1
	CapVBlankHighCRTC
	CapDumbPreferredDepth
	CapDumbPreferShadow
	CapPrime
	CapTimestampMonotonic
	CapAsyncPageFlip
	CapCursorWidth
	CapCursorHeight

	CapAddFB2Modifiers   = 0x10
	CapPageFlipTarget    = 0x11
	CapCrtcInVBlankEvent = 0x12
	CapSyncObj           = 0x13
)

// Client capabilities, enabled with SetClientCap.
const (
	ClientCapStereo3D = iota + 1
	ClientCapUniversalPlanes
	ClientCapAtomic
	ClientCapAspectRatio
	ClientCapWritebackConnectors
)

func GetCap(dev ioctl.Device, capid uint64) (uint64, error) {
	cap := &capability{}
	cap.cap = capid
	err := dev.Ioctl(IOCTLGetCap, unsafe.Pointer(cap))
	if err != nil {
		return 0, err
	}
	return cap.val, nil
}

func HasDumbBuffer(dev ioctl.Device) bool {
	val, err := GetCap(dev, CapDumbBuffer)
	if err != nil {
		return false
	}
	return val != 0
}

// SetClientCap tells the kernel the caller understands capid. Planes of
// every type and the object properties used by atomic commits are only
// reported after ClientCapUniversalPlanes and ClientCapAtomic are set.
func SetClientCap(dev ioctl.Device, capid, val uint64) error {
	cap := &capability{cap: capid, val: val}
	return dev.Ioctl(IOCTLSetClientCap, unsafe.Pointer(cap))
}
