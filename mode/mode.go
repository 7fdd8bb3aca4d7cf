package mode

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/ioctl"
)

const (
	DisplayInfoLen   = 32
	ConnectorNameLen = 32
	DisplayModeLen   = 32
	PropNameLen      = 32

	Connected         = 1
	Disconnected      = 2
	UnknownConnection = 3
)

// Framebuffer flags of AddFB2.
const (
	FBInterlaced = 1 << 0
	FBModifiers  = 1 << 1
)

var (
	// ErrGammaSize is returned when the gamma channels are empty or of
	// different lengths.
	ErrGammaSize = errors.New("mode: gamma channels must be non-empty and of equal length")
)

type (
	sysResources struct {
		fbIDPtr              uint64
		crtcIDPtr            uint64
		connectorIDPtr       uint64
		encoderIDPtr         uint64
		countFbs             uint32
		countCrtcs           uint32
		countConnectors      uint32
		countEncoders        uint32
		minWidth, maxWidth   uint32
		minHeight, maxHeight uint32
	}

	sysGetEncoder struct {
		id  uint32
		typ uint32

		crtcID uint32

		possibleCrtcs  uint32
		possibleClones uint32
	}

	Info struct {
		Clock                                         uint32
		Hdisplay, HsyncStart, HsyncEnd, Htotal, Hskew uint16
		Vdisplay, VsyncStart, VsyncEnd, Vtotal, Vscan uint16

		Vrefresh uint32

		Flags uint32
		Type  uint32
		Name  [DisplayModeLen]uint8
	}

	// Resources are the counts reported by the kernel along with the
	// framebuffer size limits. The handles themselves land in the
	// buffers passed to GetResources.
	Resources struct {
		CountFbs        uint32
		CountCrtcs      uint32
		CountConnectors uint32
		CountEncoders   uint32

		MinWidth, MaxWidth   uint32
		MinHeight, MaxHeight uint32
	}

	Encoder struct {
		ID   Handle
		Type uint32

		CrtcID Handle

		PossibleCrtcs  uint32
		PossibleClones uint32
	}

	sysFBCmd struct {
		fbID          uint32
		width, height uint32
		pitch         uint32
		bpp           uint32
		depth         uint32

		/* driver specific handle */
		handle uint32
	}

	sysFBCmd2 struct {
		fbID          uint32
		width, height uint32
		pixelFormat   uint32
		flags         uint32

		handles  [4]uint32
		pitches  [4]uint32
		offsets  [4]uint32
		modifier [4]uint64
	}

	sysFBDirty struct {
		fbID     uint32
		flags    uint32
		color    uint32
		numClips uint32
		clipsPtr uint64
	}

	sysRmFB struct {
		handle uint32
	}

	sysCrtc struct {
		setConnectorsPtr uint64
		countConnectors  uint32

		id   uint32
		fbID uint32 // Id of framebuffer

		x, y uint32 // Position on the frameuffer

		gammaSize uint32
		modeValid uint32
		mode      Info
	}

	sysCrtcLut struct {
		crtcID    uint32
		gammaSize uint32

		red, green, blue uint64
	}

	Crtc struct {
		ID       Handle
		BufferID Handle // FB id to connect to 0 = disconnect

		X, Y          uint32 // Position on the framebuffer
		Width, Height uint32
		ModeValid     int
		Mode          Info

		GammaSize int // Number of gamma stops
	}

	// Framebuffer is the legacy single plane description of a
	// framebuffer object.
	Framebuffer struct {
		ID            Handle
		Width, Height uint32
		Pitch         uint32
		BPP, Depth    uint32
		Handle        uint32 // buffer object, 0 unless the caller owns it
	}

	// Framebuffer2 describes up to four planes of a framebuffer with
	// their buffer objects and format modifiers.
	Framebuffer2 struct {
		ID            Handle
		Width, Height uint32
		PixelFormat   uint32 // fourcc
		Flags         uint32

		Handles   [4]uint32
		Pitches   [4]uint32
		Offsets   [4]uint32
		Modifiers [4]uint64
	}

	// ClipRect is an inclusive-exclusive damage rectangle for DirtyFB.
	ClipRect struct {
		X1, Y1, X2, Y2 uint16
	}
)

// String returns the mode name, e.g. "1920x1080".
func (i *Info) String() string {
	return cstring(i.Name[:])
}

// GetResources enumerates the framebuffers, CRTCs, connectors and
// encoders of the card. Every buffer is optional; with no buffers only
// the counts are queried.
func GetResources(dev ioctl.Device, fbs, crtcs, connectors, encoders *[]Handle) (*Resources, error) {
	q := &fetch.Request[sysResources]{
		Dev:  dev,
		Code: IOCTLModeResources,
		Key:  func() sysResources { return sysResources{} },
		Fields: []fetch.Field[sysResources]{
			field(fbs, func(r *sysResources) (*uint32, *uint64) { return &r.countFbs, &r.fbIDPtr }),
			field(crtcs, func(r *sysResources) (*uint32, *uint64) { return &r.countCrtcs, &r.crtcIDPtr }),
			field(connectors, func(r *sysResources) (*uint32, *uint64) { return &r.countConnectors, &r.connectorIDPtr }),
			field(encoders, func(r *sysResources) (*uint32, *uint64) { return &r.countEncoders, &r.encoderIDPtr }),
		},
	}
	mres, err := q.Do()
	if err != nil {
		return nil, err
	}

	return &Resources{
		CountFbs:        mres.countFbs,
		CountCrtcs:      mres.countCrtcs,
		CountConnectors: mres.countConnectors,
		CountEncoders:   mres.countEncoders,
		MinWidth:        mres.minWidth,
		MaxWidth:        mres.maxWidth,
		MinHeight:       mres.minHeight,
		MaxHeight:       mres.maxHeight,
	}, nil
}

func GetEncoder(dev ioctl.Device, id Handle) (*Encoder, error) {
	encoder := &sysGetEncoder{}
	encoder.id = uint32(id)

	err := dev.Ioctl(IOCTLModeGetEncoder, unsafe.Pointer(encoder))
	if err != nil {
		return nil, err
	}

	return &Encoder{
		ID:             Handle(encoder.id),
		CrtcID:         Handle(encoder.crtcID),
		Type:           encoder.typ,
		PossibleCrtcs:  encoder.possibleCrtcs,
		PossibleClones: encoder.possibleClones,
	}, nil
}

func GetFramebuffer(dev ioctl.Device, id Handle) (*Framebuffer, error) {
	f := &sysFBCmd{fbID: uint32(id)}
	err := dev.Ioctl(IOCTLModeGetFB, unsafe.Pointer(f))
	if err != nil {
		return nil, err
	}
	return &Framebuffer{
		ID:     Handle(f.fbID),
		Width:  f.width,
		Height: f.height,
		Pitch:  f.pitch,
		BPP:    f.bpp,
		Depth:  f.depth,
		Handle: f.handle,
	}, nil
}

func AddFB(dev ioctl.Device, width, height uint32,
	depth, bpp uint8, pitch, boHandle uint32) (Handle, error) {
	f := &sysFBCmd{}
	f.width = width
	f.height = height
	f.pitch = pitch
	f.bpp = uint32(bpp)
	f.depth = uint32(depth)
	f.handle = boHandle
	err := dev.Ioctl(IOCTLModeAddFB, unsafe.Pointer(f))
	if err != nil {
		return 0, err
	}
	return Handle(f.fbID), nil
}

func GetFramebuffer2(dev ioctl.Device, id Handle) (*Framebuffer2, error) {
	f := &sysFBCmd2{fbID: uint32(id)}
	err := dev.Ioctl(IOCTLModeGetFB2, unsafe.Pointer(f))
	if err != nil {
		return nil, err
	}
	return &Framebuffer2{
		ID:          Handle(f.fbID),
		Width:       f.width,
		Height:      f.height,
		PixelFormat: f.pixelFormat,
		Flags:       f.flags,
		Handles:     f.handles,
		Pitches:     f.pitches,
		Offsets:     f.offsets,
		Modifiers:   f.modifier,
	}, nil
}

// AddFB2 creates a framebuffer from fb; fb.ID is ignored and the new
// id is returned. Set FBModifiers in fb.Flags for Modifiers to be used.
func AddFB2(dev ioctl.Device, fb *Framebuffer2) (Handle, error) {
	f := &sysFBCmd2{
		width:       fb.Width,
		height:      fb.Height,
		pixelFormat: fb.PixelFormat,
		flags:       fb.Flags,
		handles:     fb.Handles,
		pitches:     fb.Pitches,
		offsets:     fb.Offsets,
		modifier:    fb.Modifiers,
	}
	err := dev.Ioctl(IOCTLModeAddFB2, unsafe.Pointer(f))
	if err != nil {
		return 0, err
	}
	return Handle(f.fbID), nil
}

func RmFB(dev ioctl.Device, bufferid Handle) error {
	return dev.Ioctl(IOCTLModeRmFB, unsafe.Pointer(&sysRmFB{uint32(bufferid)}))
}

// DirtyFB flushes the damaged clips of a framebuffer on drivers that
// need it. No clips means the whole framebuffer.
func DirtyFB(dev ioctl.Device, fbid Handle, clips []ClipRect) error {
	var pin runtime.Pinner
	defer pin.Unpin()
	dirty := &sysFBDirty{
		fbID:     uint32(fbid),
		numClips: uint32(len(clips)),
		clipsPtr: ptr(&pin, clips),
	}
	return dev.Ioctl(IOCTLModeDirtyFB, unsafe.Pointer(dirty))
}

func GetCrtc(dev ioctl.Device, id Handle) (*Crtc, error) {
	crtc := &sysCrtc{}
	crtc.id = uint32(id)
	err := dev.Ioctl(IOCTLModeGetCrtc, unsafe.Pointer(crtc))
	if err != nil {
		return nil, err
	}
	ret := &Crtc{
		ID:        Handle(crtc.id),
		X:         crtc.x,
		Y:         crtc.y,
		ModeValid: int(crtc.modeValid),
		BufferID:  Handle(crtc.fbID),
		GammaSize: int(crtc.gammaSize),
	}

	ret.Mode = crtc.mode
	ret.Width = uint32(crtc.mode.Hdisplay)
	ret.Height = uint32(crtc.mode.Vdisplay)
	return ret, nil
}

// SetCrtc attaches bufferid and connectors to crtcid. A nil mode
// disables the CRTC.
func SetCrtc(dev ioctl.Device, crtcid, bufferid Handle, x, y uint32, connectors []Handle, mode *Info) error {
	var pin runtime.Pinner
	defer pin.Unpin()
	crtc := &sysCrtc{}
	crtc.x = x
	crtc.y = y
	crtc.id = uint32(crtcid)
	crtc.fbID = uint32(bufferid)
	crtc.setConnectorsPtr = ptr(&pin, connectors)
	crtc.countConnectors = uint32(len(connectors))
	if mode != nil {
		crtc.mode = *mode
		crtc.modeValid = 1
	}
	return dev.Ioctl(IOCTLModeSetCrtc, unsafe.Pointer(crtc))
}

// GetGamma reads the gamma ramp of a CRTC into the three channels. Their
// length must be the CRTC's GammaSize.
func GetGamma(dev ioctl.Device, crtcid Handle, red, green, blue []uint16) error {
	var pin runtime.Pinner
	defer pin.Unpin()
	lut, err := newLut(&pin, crtcid, red, green, blue)
	if err != nil {
		return err
	}
	return dev.Ioctl(IOCTLModeGetGamma, unsafe.Pointer(lut))
}

func SetGamma(dev ioctl.Device, crtcid Handle, red, green, blue []uint16) error {
	var pin runtime.Pinner
	defer pin.Unpin()
	lut, err := newLut(&pin, crtcid, red, green, blue)
	if err != nil {
		return err
	}
	return dev.Ioctl(IOCTLModeSetGamma, unsafe.Pointer(lut))
}

func newLut(pin *runtime.Pinner, crtcid Handle, red, green, blue []uint16) (*sysCrtcLut, error) {
	if len(red) == 0 || len(red) != len(green) || len(red) != len(blue) {
		return nil, ErrGammaSize
	}
	return &sysCrtcLut{
		crtcID:    uint32(crtcid),
		gammaSize: uint32(len(red)),
		red:       ptr(pin, red),
		green:     ptr(pin, green),
		blue:      ptr(pin, blue),
	}, nil
}
