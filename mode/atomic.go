package mode

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/mrshiposha/drm/ioctl"
)

// Page flip flags, also accepted by AtomicCommit.
const (
	PageFlipEvent          = 0x01
	PageFlipAsync          = 0x02
	PageFlipTargetAbsolute = 0x04
	PageFlipTargetRelative = 0x08
)

// Atomic commit flags.
const (
	AtomicTestOnly     = 0x0100
	AtomicNonblock     = 0x0200
	AtomicAllowModeset = 0x0400
)

// ErrAtomicShape is returned when the arrays of an atomic commit do not
// describe the same set of properties.
var ErrAtomicShape = errors.New("mode: atomic commit arrays are inconsistent")

type (
	sysPageFlip struct {
		crtcID uint32
		fbID   uint32
		flags  uint32
		// sequence when one of the target flags is set
		reserved uint32
		userData uint64
	}

	sysAtomic struct {
		flags         uint32
		countObjs     uint32
		objsPtr       uint64
		countPropsPtr uint64
		propsPtr      uint64
		propValuesPtr uint64
		reserved      uint64
		userData      uint64
	}
)

// PageFlip queues fbid for scanout on crtcid at the next vblank, or at
// vblank sequence when a target flag is given. The CRTC id is passed
// back in the event's user data.
func PageFlip(dev ioctl.Device, crtcid, fbid Handle, flags, sequence uint32) error {
	flip := &sysPageFlip{
		crtcID:   uint32(crtcid),
		fbID:     uint32(fbid),
		flags:    flags,
		reserved: sequence,
		userData: uint64(crtcid),
	}
	return dev.Ioctl(IOCTLModePageFlip, unsafe.Pointer(flip))
}

// AtomicCommit applies property updates to several objects at once.
// propCounts[i] is the number of entries of props and values that
// belong to objs[i], in order.
func AtomicCommit(dev ioctl.Device, flags uint32, objs []Handle, propCounts []uint32, props []Handle, values []uint64) error {
	if len(objs) != len(propCounts) || len(props) != len(values) {
		return ErrAtomicShape
	}
	total := 0
	for _, n := range propCounts {
		total += int(n)
	}
	if total != len(props) {
		return ErrAtomicShape
	}

	var pin runtime.Pinner
	defer pin.Unpin()
	atomic := &sysAtomic{
		flags:         flags,
		countObjs:     uint32(len(objs)),
		objsPtr:       ptr(&pin, objs),
		countPropsPtr: ptr(&pin, propCounts),
		propsPtr:      ptr(&pin, props),
		propValuesPtr: ptr(&pin, values),
	}
	return dev.Ioctl(IOCTLModeAtomic, unsafe.Pointer(atomic))
}

// AtomicReq accumulates property updates for AtomicCommit, keeping the
// updates of one object together.
type AtomicReq struct {
	objs   []Handle
	counts []uint32
	props  [][]Handle
	values [][]uint64
}

func (r *AtomicReq) Add(obj, prop Handle, value uint64) {
	i := 0
	for i < len(r.objs) && r.objs[i] != obj {
		i++
	}
	if i == len(r.objs) {
		r.objs = append(r.objs, obj)
		r.counts = append(r.counts, 0)
		r.props = append(r.props, nil)
		r.values = append(r.values, nil)
	}
	r.counts[i]++
	r.props[i] = append(r.props[i], prop)
	r.values[i] = append(r.values[i], value)
}

func (r *AtomicReq) Commit(dev ioctl.Device, flags uint32) error {
	var (
		props  []Handle
		values []uint64
	)
	for i := range r.objs {
		props = append(props, r.props[i]...)
		values = append(values, r.values[i]...)
	}
	return AtomicCommit(dev, flags, r.objs, r.counts, props, values)
}
