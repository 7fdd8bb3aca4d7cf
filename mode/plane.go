package mode

import (
	"unsafe"

	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/ioctl"
)

type (
	sysPlaneResources struct {
		planeIDPtr  uint64
		countPlanes uint32
	}

	sysGetPlane struct {
		planeID uint32

		crtcID uint32
		fbID   uint32

		possibleCrtcs uint32
		gammaSize     uint32

		countFormatTypes uint32
		formatTypePtr    uint64
	}

	sysSetPlane struct {
		planeID uint32
		crtcID  uint32
		fbID    uint32 // fb object contains surface format type
		flags   uint32

		// Signed dest location allows it to be partially off screen
		crtcX, crtcY int32
		crtcW, crtcH uint32

		// Source values are 16.16 fixed point
		srcX, srcY uint32
		srcH, srcW uint32
	}

	PlaneResources struct {
		CountPlanes uint32
	}

	Plane struct {
		ID     Handle
		CrtcID Handle // 0 when the plane is disabled
		FbID   Handle

		PossibleCrtcs uint32
		GammaSize     uint32

		CountFormatTypes uint32
	}

	// PlaneConfig is the state SetPlane applies. Source coordinates are
	// 16.16 fixed point, destination coordinates are in pixels and may
	// be negative.
	PlaneConfig struct {
		Plane Handle
		Crtc  Handle
		FB    Handle // 0 disables the plane
		Flags uint32

		CrtcX, CrtcY int32
		CrtcW, CrtcH uint32

		SrcX, SrcY uint32
		SrcW, SrcH uint32
	}
)

// GetPlaneResources lists the planes of the card. Only overlay planes
// are reported unless drm.ClientCapUniversalPlanes is set.
func GetPlaneResources(dev ioctl.Device, planes *[]Handle) (*PlaneResources, error) {
	q := &fetch.Request[sysPlaneResources]{
		Dev:  dev,
		Code: IOCTLModeGetPlaneResources,
		Key:  func() sysPlaneResources { return sysPlaneResources{} },
		Fields: []fetch.Field[sysPlaneResources]{
			field(planes, func(r *sysPlaneResources) (*uint32, *uint64) { return &r.countPlanes, &r.planeIDPtr }),
		},
	}
	res, err := q.Do()
	if err != nil {
		return nil, err
	}
	return &PlaneResources{CountPlanes: res.countPlanes}, nil
}

// GetPlane describes a plane. formats receives the fourcc codes the
// plane can scan out; nil skips them.
func GetPlane(dev ioctl.Device, id Handle, formats *[]uint32) (*Plane, error) {
	q := &fetch.Request[sysGetPlane]{
		Dev:  dev,
		Code: IOCTLModeGetPlane,
		Key:  func() sysGetPlane { return sysGetPlane{planeID: uint32(id)} },
		Fields: []fetch.Field[sysGetPlane]{
			field(formats, func(r *sysGetPlane) (*uint32, *uint64) { return &r.countFormatTypes, &r.formatTypePtr }),
		},
	}
	plane, err := q.Do()
	if err != nil {
		return nil, err
	}
	return &Plane{
		ID:               Handle(plane.planeID),
		CrtcID:           Handle(plane.crtcID),
		FbID:             Handle(plane.fbID),
		PossibleCrtcs:    plane.possibleCrtcs,
		GammaSize:        plane.gammaSize,
		CountFormatTypes: plane.countFormatTypes,
	}, nil
}

func SetPlane(dev ioctl.Device, cfg PlaneConfig) error {
	plane := &sysSetPlane{
		planeID: uint32(cfg.Plane),
		crtcID:  uint32(cfg.Crtc),
		fbID:    uint32(cfg.FB),
		flags:   cfg.Flags,
		crtcX:   cfg.CrtcX,
		crtcY:   cfg.CrtcY,
		crtcW:   cfg.CrtcW,
		crtcH:   cfg.CrtcH,
		srcX:    cfg.SrcX,
		srcY:    cfg.SrcY,
		srcW:    cfg.SrcW,
		srcH:    cfg.SrcH,
	}
	return dev.Ioctl(IOCTLModeSetPlane, unsafe.Pointer(plane))
}
