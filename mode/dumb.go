package mode

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/ioctl"
)

// Dumb buffers are driver independent, CPU mapped buffers usable for
// scanout only. Their handles are buffer objects, not mode objects: a
// framebuffer is created on top of one with AddFB.

type (
	sysCreateDumb struct {
		height, width uint32
		bpp           uint32
		flags         uint32

		// returned values
		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32 // Handle for the object being mapped
		pad    uint32

		// Fake offset to use for subsequent mmap call
		// This is a fixed-size type for 32/64 compatibility.
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	DumbBuffer struct {
		Height, Width, BPP, Flags uint32
		Handle                    uint32
		Pitch                     uint32
		Size                      uint64
	}
)

func CreateDumb(dev ioctl.Device, width, height, bpp, flags uint32) (*DumbBuffer, error) {
	fb := &sysCreateDumb{}
	fb.width = width
	fb.height = height
	fb.bpp = bpp
	fb.flags = flags
	err := dev.Ioctl(IOCTLModeCreateDumb, unsafe.Pointer(fb))
	if err != nil {
		return nil, err
	}
	return &DumbBuffer{
		Height: fb.height,
		Width:  fb.width,
		BPP:    fb.bpp,
		Flags:  fb.flags,
		Handle: fb.handle,
		Pitch:  fb.pitch,
		Size:   fb.size,
	}, nil
}

// MapDumb returns the offset to pass to mmap(2) on the card to map the
// buffer.
func MapDumb(dev ioctl.Device, boHandle uint32) (uint64, error) {
	mreq := &sysMapDumb{}
	mreq.handle = boHandle
	err := dev.Ioctl(IOCTLModeMapDumb, unsafe.Pointer(mreq))
	if err != nil {
		return 0, err
	}
	return mreq.offset, nil
}

func DestroyDumb(dev ioctl.Device, handle uint32) error {
	return dev.Ioctl(IOCTLModeDestroyDumb, unsafe.Pointer(&sysDestroyDumb{handle}))
}

// MapDumbBuffer maps db read/write into memory. Release the mapping
// with UnmapDumbBuffer before destroying the buffer.
func MapDumbBuffer(card *drm.Card, db *DumbBuffer) ([]byte, error) {
	offset, err := MapDumb(card, db.Handle)
	if err != nil {
		return nil, err
	}
	return unix.Mmap(int(card.Fd()), int64(offset), int(db.Size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func UnmapDumbBuffer(data []byte) error {
	return unix.Munmap(data)
}
