package drm

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/ioctl"
)

type (
	version struct {
		Major   int32
		Minor   int32
		Patch   int32
		namelen uint
		name    uintptr
		datelen uint
		date    uintptr
		desclen uint
		desc    uintptr
	}

	// Version of DRM driver
	Version struct {
		Major, Minor, Patch int32
		Name                string // Name of the driver (eg.: i915)
		Date                string
		Desc                string
	}

	// Card is an open DRM device node. Every request of this module is
	// issued through it; it is safe to share between goroutines as the
	// kernel serializes mode setting state itself.
	Card struct {
		*os.File
	}
)

const (
	driPath = "/dev/dri"
)

func Available() (Version, error) {
	card, err := OpenCard(0)
	if err != nil {
		// handle backward linux compat?
		// check /proc/dri/0 ?
		return Version{}, err
	}
	defer card.Close()
	return GetVersion(card)
}

func OpenCard(n int) (*Card, error) {
	return OpenPath(fmt.Sprintf("%s/card%d", driPath, n))
}

func OpenControlDev(n int) (*Card, error) {
	return OpenPath(fmt.Sprintf("%s/controlD%d", driPath, n))
}

func OpenRenderDev(n int) (*Card, error) {
	return OpenPath(fmt.Sprintf("%s/renderD%d", driPath, n))
}

// OpenPath opens the DRM node at path for reading and writing.
func OpenPath(path string) (*Card, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Card{File: f}, nil
}

// NewCard wraps an already open DRM file descriptor, such as the one
// handed out for a lease.
func NewCard(fd uintptr, name string) *Card {
	return &Card{File: os.NewFile(fd, name)}
}

// Ioctl implements ioctl.Device.
func (c *Card) Ioctl(code uint32, arg unsafe.Pointer) error {
	rc, err := c.SyscallConn()
	if err != nil {
		return err
	}
	var ierr error
	err = rc.Control(func(fd uintptr) {
		ierr = ioctl.Do(fd, code, arg)
	})
	if err != nil {
		return err
	}
	return ierr
}

// GetVersion reads the driver version and its name, date and
// description. The strings are read again when a length reported with
// them differs from the one they were sized for.
func GetVersion(dev ioctl.Device) (Version, error) {
	sizes := &version{}
	if err := dev.Ioctl(IOCTLVersion, unsafe.Pointer(sizes)); err != nil {
		return Version{}, err
	}

	for {
		name := make([]byte, sizes.namelen)
		date := make([]byte, sizes.datelen)
		desc := make([]byte, sizes.desclen)

		var pin runtime.Pinner
		v := &version{
			namelen: sizes.namelen,
			name:    uintptr(fetch.Pin(&pin, name)),
			datelen: sizes.datelen,
			date:    uintptr(fetch.Pin(&pin, date)),
			desclen: sizes.desclen,
			desc:    uintptr(fetch.Pin(&pin, desc)),
		}
		err := dev.Ioctl(IOCTLVersion, unsafe.Pointer(v))
		pin.Unpin()
		if err != nil {
			return Version{}, err
		}

		if v.namelen != sizes.namelen || v.datelen != sizes.datelen || v.desclen != sizes.desclen {
			logger.Debug("driver version strings changed, reading again")
			sizes = v
			continue
		}

		nozero := func(r rune) bool {
			return r == 0
		}
		return Version{
			Major: v.Major,
			Minor: v.Minor,
			Patch: v.Patch,
			Name:  string(bytes.TrimFunc(name, nozero)),
			Date:  string(bytes.TrimFunc(date, nozero)),
			Desc:  string(bytes.TrimFunc(desc, nozero)),
		}, nil
	}
}

// SetMaster makes the caller the DRM master of dev. Mode setting and
// leasing require it.
func SetMaster(dev ioctl.Device) error {
	return dev.Ioctl(IOCTLSetMaster, nil)
}

func DropMaster(dev ioctl.Device) error {
	return dev.Ioctl(IOCTLDropMaster, nil)
}
