// Package lease grants a subset of a card's mode setting objects to a
// separate DRM handle, the lessee.
//
// The grantor (usually the DRM master) creates a lease over a set of
// CRTCs, connectors and planes. The kernel answers with a lessee id and
// a new file descriptor that can only see and drive the leased objects.
// The lease lasts until it is revoked or the grantor closes its card.
package lease

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"unsafe"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/ioctl"
	"github.com/mrshiposha/drm/mode"
)

// ErrNoObjects is returned by CreateLease for an empty object set.
var ErrNoObjects = errors.New("lease: no objects to lease")

// LesseeID identifies a lessee of the grantor. Its namespace is separate
// from the mode object handles.
type LesseeID uint32

// LesseeIDFrom returns the id for u; zero is never allocated.
func LesseeIDFrom(u uint32) (LesseeID, bool) {
	return LesseeID(u), u != 0
}

func (id LesseeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type (
	sysCreateLease struct {
		objectIDs   uint64
		objectCount uint32
		flags       uint32

		lesseeID uint32
		fd       uint32
	}

	sysListLessees struct {
		countLessees uint32
		pad          uint32
		lesseesPtr   uint64
	}

	sysGetLease struct {
		countObjects uint32
		pad          uint32
		objectsPtr   uint64
	}

	sysRevokeLease struct {
		lesseeID uint32
	}
)

var (
	// DRM_IOWR(0xC6, struct drm_mode_create_lease)
	IOCTLCreateLease = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCreateLease{})), drm.IOCTLBase, 0xc6)

	// DRM_IOWR(0xC7, struct drm_mode_list_lessees)
	IOCTLListLessees = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysListLessees{})), drm.IOCTLBase, 0xc7)

	// DRM_IOWR(0xC8, struct drm_mode_get_lease)
	IOCTLGetLease = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetLease{})), drm.IOCTLBase, 0xc8)

	// DRM_IOWR(0xC9, struct drm_mode_revoke_lease)
	IOCTLRevokeLease = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysRevokeLease{})), drm.IOCTLBase, 0xc9)
)

// CreateLease leases objects to a new lessee. flags apply to the
// returned file descriptor and may combine unix.O_CLOEXEC and
// unix.O_NONBLOCK.
func CreateLease(dev ioctl.Device, objects []mode.Handle, flags uint32) (LesseeID, *drm.Card, error) {
	if len(objects) == 0 {
		return 0, nil, ErrNoObjects
	}
	var pin runtime.Pinner
	defer pin.Unpin()
	req := &sysCreateLease{
		objectIDs:   fetch.Pin(&pin, objects),
		objectCount: uint32(len(objects)),
		flags:       flags,
	}
	err := dev.Ioctl(IOCTLCreateLease, unsafe.Pointer(req))
	if err != nil {
		return 0, nil, err
	}

	id := LesseeID(req.lesseeID)
	return id, drm.NewCard(uintptr(req.fd), fmt.Sprintf("drm-lease-%d", id)), nil
}

// ListLessees returns the number of lessees of dev and fills lessees
// with their ids when it is not nil.
func ListLessees(dev ioctl.Device, lessees *[]LesseeID) (uint32, error) {
	q := &fetch.Request[sysListLessees]{
		Dev:  dev,
		Code: IOCTLListLessees,
		Key:  func() sysListLessees { return sysListLessees{} },
		Fields: []fetch.Field[sysListLessees]{{
			Array: fetch.Into(lessees),
			Count: func(r *sysListLessees) *uint32 { return &r.countLessees },
			Ptrs:  func(r *sysListLessees) []*uint64 { return []*uint64{&r.lesseesPtr} },
		}},
	}
	list, err := q.Do()
	if err != nil {
		return 0, err
	}
	return list.countLessees, nil
}

// GetLease returns the number of objects leased to dev itself and
// fills objects with their handles when it is not nil. For the DRM
// master, which holds every object, this is all of them.
func GetLease(dev ioctl.Device, objects *[]mode.Handle) (uint32, error) {
	q := &fetch.Request[sysGetLease]{
		Dev:  dev,
		Code: IOCTLGetLease,
		Key:  func() sysGetLease { return sysGetLease{} },
		Fields: []fetch.Field[sysGetLease]{{
			Array: fetch.Into(objects),
			Count: func(r *sysGetLease) *uint32 { return &r.countObjects },
			Ptrs:  func(r *sysGetLease) []*uint64 { return []*uint64{&r.objectsPtr} },
		}},
	}
	get, err := q.Do()
	if err != nil {
		return 0, err
	}
	return get.countObjects, nil
}

// RevokeLease ends the lease of lessee. Revoking an id that was never
// created, or was already revoked, fails with unix.ENOENT.
func RevokeLease(dev ioctl.Device, lessee LesseeID) error {
	return dev.Ioctl(IOCTLRevokeLease, unsafe.Pointer(&sysRevokeLease{uint32(lessee)}))
}
