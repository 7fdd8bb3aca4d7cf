package mode

import (
	"testing"
	"unsafe"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm/internal/fake"
)

func TestCodes(t *testing.T) {
	// values from the kernel uapi headers on a 64 bit build
	for name, c := range map[string]struct{ got, want uint32 }{
		"GETRESOURCES":      {IOCTLModeResources, 0xc04064a0},
		"GETCRTC":           {IOCTLModeGetCrtc, 0xc06864a1},
		"CURSOR":            {IOCTLModeCursor, 0xc01c64a3},
		"GETGAMMA":          {IOCTLModeGetGamma, 0xc02064a4},
		"GETENCODER":        {IOCTLModeGetEncoder, 0xc01464a6},
		"GETCONNECTOR":      {IOCTLModeGetConnector, 0xc05064a7},
		"GETPROPERTY":       {IOCTLModeGetProperty, 0xc04064aa},
		"GETPROPBLOB":       {IOCTLModeGetPropBlob, 0xc01064ac},
		"GETFB":             {IOCTLModeGetFB, 0xc01c64ad},
		"RMFB":              {IOCTLModeRmFB, 0xc00464af},
		"PAGE_FLIP":         {IOCTLModePageFlip, 0xc01864b0},
		"DIRTYFB":           {IOCTLModeDirtyFB, 0xc01864b1},
		"CREATE_DUMB":       {IOCTLModeCreateDumb, 0xc02064b2},
		"MAP_DUMB":          {IOCTLModeMapDumb, 0xc01064b3},
		"DESTROY_DUMB":      {IOCTLModeDestroyDumb, 0xc00464b4},
		"GETPLANERESOURCES": {IOCTLModeGetPlaneResources, 0xc01064b5},
		"GETPLANE":          {IOCTLModeGetPlane, 0xc02064b6},
		"SETPLANE":          {IOCTLModeSetPlane, 0xc03064b7},
		"ADDFB2":            {IOCTLModeAddFB2, 0xc06864b8},
		"OBJ_GETPROPERTIES": {IOCTLModeObjGetProperties, 0xc02064b9},
		"OBJ_SETPROPERTY":   {IOCTLModeObjSetProperty, 0xc01864ba},
		"CURSOR2":           {IOCTLModeCursor2, 0xc02464bb},
		"ATOMIC":            {IOCTLModeAtomic, 0xc03864bc},
		"CREATEPROPBLOB":    {IOCTLModeCreatePropBlob, 0xc01064bd},
		"DESTROYPROPBLOB":   {IOCTLModeDestroyPropBlob, 0xc00464be},
	} {
		assert.Equal(t, c.want, c.got, "DRM_IOCTL_MODE_%s", name)
	}
}

func TestHandleFrom(t *testing.T) {
	h, ok := HandleFrom(42)
	assert.True(t, ok)
	assert.Equal(t, Handle(42), h)

	_, ok = HandleFrom(0)
	assert.False(t, ok)
}

func TestObjectType(t *testing.T) {
	typ, err := ParseObjectType("connector")
	require.NoError(t, err)
	assert.Equal(t, ObjectConnector, typ)
	assert.Equal(t, "plane", ObjectPlane.String())

	_, err = ParseObjectType("gpu")
	assert.Error(t, err)
}

func resourcesHandler(connectors func(call int) []Handle) (fake.Handler, *int) {
	calls := 0
	return func(arg unsafe.Pointer) error {
		r := (*sysResources)(arg)
		conns := connectors(calls)
		calls++
		r.countFbs = fake.CopyOut(r.fbIDPtr, r.countFbs, []Handle{70})
		r.countCrtcs = fake.CopyOut(r.crtcIDPtr, r.countCrtcs, []Handle{40, 41})
		r.countConnectors = fake.CopyOut(r.connectorIDPtr, r.countConnectors, conns)
		r.countEncoders = fake.CopyOut(r.encoderIDPtr, r.countEncoders, []Handle{50})
		r.minWidth, r.maxWidth = 1, 8192
		r.minHeight, r.maxHeight = 1, 8192
		return nil
	}, &calls
}

func TestGetResources(t *testing.T) {
	h, calls := resourcesHandler(func(int) []Handle { return []Handle{30, 31, 32} })
	dev := fake.New().On(IOCTLModeResources, h)

	var fbs, crtcs, connectors, encoders []Handle
	res, err := GetResources(dev, &fbs, &crtcs, &connectors, &encoders)
	require.NoError(t, err)

	want := &Resources{
		CountFbs: 1, CountCrtcs: 2, CountConnectors: 3, CountEncoders: 1,
		MinWidth: 1, MaxWidth: 8192, MinHeight: 1, MaxHeight: 8192,
	}
	if diff := pretty.Compare(res, want); diff != "" {
		t.Errorf("resources differ: %s", diff)
	}
	assert.Equal(t, 2, *calls)
	assert.Equal(t, []Handle{70}, fbs)
	assert.Equal(t, []Handle{40, 41}, crtcs)
	assert.Equal(t, []Handle{30, 31, 32}, connectors)
	assert.Equal(t, []Handle{50}, encoders)
}

func TestGetResourcesCountsOnly(t *testing.T) {
	h, calls := resourcesHandler(func(int) []Handle { return []Handle{30} })
	dev := fake.New().On(IOCTLModeResources, h)

	res, err := GetResources(dev, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, uint32(1), res.CountConnectors)
	assert.Equal(t, uint32(2), res.CountCrtcs)
}

func TestGetResourcesHotplug(t *testing.T) {
	// a connector shows up between the probe and the first fetch
	h, calls := resourcesHandler(func(call int) []Handle {
		if call == 0 {
			return []Handle{30}
		}
		return []Handle{30, 90, 91}
	})
	dev := fake.New().On(IOCTLModeResources, h)

	var connectors []Handle
	res, err := GetResources(dev, nil, nil, &connectors, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, uint32(3), res.CountConnectors)
	assert.Equal(t, []Handle{30, 90, 91}, connectors)
}

func TestGetEncoder(t *testing.T) {
	dev := fake.New().On(IOCTLModeGetEncoder, func(arg unsafe.Pointer) error {
		e := (*sysGetEncoder)(arg)
		if e.id != 50 {
			return unix.ENOENT
		}
		e.typ = 2
		e.crtcID = 40
		e.possibleCrtcs = 0x3
		return nil
	})

	enc, err := GetEncoder(dev, 50)
	require.NoError(t, err)
	assert.Equal(t, &Encoder{ID: 50, Type: 2, CrtcID: 40, PossibleCrtcs: 3}, enc)

	_, err = GetEncoder(dev, 51)
	require.ErrorIs(t, err, unix.ENOENT)
}

func testMode(name string, w, h uint16) Info {
	m := Info{Clock: 148500, Hdisplay: w, Vdisplay: h, Vrefresh: 60}
	copy(m.Name[:], name)
	return m
}

func TestCrtc(t *testing.T) {
	var got sysCrtc
	var conns []Handle
	dev := fake.New().
		On(IOCTLModeGetCrtc, func(arg unsafe.Pointer) error {
			c := (*sysCrtc)(arg)
			c.fbID = 70
			c.x, c.y = 0, 0
			c.gammaSize = 256
			c.modeValid = 1
			c.mode = testMode("1920x1080", 1920, 1080)
			return nil
		}).
		On(IOCTLModeSetCrtc, func(arg unsafe.Pointer) error {
			got = *(*sysCrtc)(arg)
			conns = fake.CopyIn[Handle](got.setConnectorsPtr, got.countConnectors)
			return nil
		})

	crtc, err := GetCrtc(dev, 40)
	require.NoError(t, err)
	assert.Equal(t, Handle(40), crtc.ID)
	assert.Equal(t, uint32(1920), crtc.Width)
	assert.Equal(t, uint32(1080), crtc.Height)
	assert.Equal(t, 256, crtc.GammaSize)
	assert.Equal(t, "1920x1080", crtc.Mode.String())

	require.NoError(t, SetCrtc(dev, 40, 71, 10, 20, []Handle{30, 31}, &crtc.Mode))
	assert.Equal(t, []Handle{30, 31}, conns)
	assert.Equal(t, uint32(71), got.fbID)
	assert.Equal(t, uint32(1), got.modeValid)
	assert.Equal(t, uint32(10), got.x)

	// disable
	require.NoError(t, SetCrtc(dev, 40, 0, 0, 0, nil, nil))
	assert.Zero(t, got.modeValid)
	assert.Zero(t, got.setConnectorsPtr)
	assert.Nil(t, conns)
}

func TestGamma(t *testing.T) {
	dev := fake.New().On(IOCTLModeGetGamma, func(arg unsafe.Pointer) error {
		lut := (*sysCrtcLut)(arg)
		ramp := make([]uint16, lut.gammaSize)
		for i := range ramp {
			ramp[i] = uint16(i << 8)
		}
		fake.CopyOut(lut.red, lut.gammaSize, ramp)
		fake.CopyOut(lut.green, lut.gammaSize, ramp)
		fake.CopyOut(lut.blue, lut.gammaSize, ramp)
		return nil
	})

	r, g, b := make([]uint16, 4), make([]uint16, 4), make([]uint16, 4)
	require.NoError(t, GetGamma(dev, 40, r, g, b))
	assert.Equal(t, []uint16{0, 256, 512, 768}, b)

	assert.ErrorIs(t, GetGamma(dev, 40, r, g, b[:3]), ErrGammaSize)
	assert.ErrorIs(t, SetGamma(dev, 40, nil, nil, nil), ErrGammaSize)
	assert.Len(t, dev.Calls, 1)
}

func TestFramebuffers(t *testing.T) {
	var added sysFBCmd2
	var clips []ClipRect
	removed := Handle(0)
	dev := fake.New().
		On(IOCTLModeAddFB, func(arg unsafe.Pointer) error {
			f := (*sysFBCmd)(arg)
			if f.handle == 0 {
				return unix.EINVAL
			}
			f.fbID = 70
			return nil
		}).
		On(IOCTLModeAddFB2, func(arg unsafe.Pointer) error {
			added = *(*sysFBCmd2)(arg)
			(*sysFBCmd2)(arg).fbID = 71
			return nil
		}).
		On(IOCTLModeGetFB2, func(arg unsafe.Pointer) error {
			f := (*sysFBCmd2)(arg)
			*f = added
			f.fbID = 71
			return nil
		}).
		On(IOCTLModeDirtyFB, func(arg unsafe.Pointer) error {
			d := (*sysFBDirty)(arg)
			clips = fake.CopyIn[ClipRect](d.clipsPtr, d.numClips)
			return nil
		}).
		On(IOCTLModeRmFB, func(arg unsafe.Pointer) error {
			removed = Handle(*(*uint32)(arg))
			return nil
		})

	id, err := AddFB(dev, 640, 480, 24, 32, 2560, 5)
	require.NoError(t, err)
	assert.Equal(t, Handle(70), id)

	_, err = AddFB(dev, 640, 480, 24, 32, 2560, 0)
	require.ErrorIs(t, err, unix.EINVAL)

	fb := &Framebuffer2{
		Width: 640, Height: 480, PixelFormat: 0x34325258, Flags: FBModifiers,
		Handles:   [4]uint32{5, 5},
		Pitches:   [4]uint32{2560, 1280},
		Offsets:   [4]uint32{0, 1228800},
		Modifiers: [4]uint64{1, 1},
	}
	id, err = AddFB2(dev, fb)
	require.NoError(t, err)
	assert.Equal(t, Handle(71), id)
	assert.Equal(t, fb.Offsets, added.offsets)

	got, err := GetFramebuffer2(dev, 71)
	require.NoError(t, err)
	fb.ID = 71
	if diff := pretty.Compare(got, fb); diff != "" {
		t.Errorf("framebuffer differs: %s", diff)
	}

	require.NoError(t, DirtyFB(dev, 71, []ClipRect{{0, 0, 10, 10}}))
	assert.Equal(t, []ClipRect{{0, 0, 10, 10}}, clips)

	require.NoError(t, RmFB(dev, 71))
	assert.Equal(t, Handle(71), removed)
}

func TestDumbBuffer(t *testing.T) {
	destroyed := uint32(0)
	dev := fake.New().
		On(IOCTLModeCreateDumb, func(arg unsafe.Pointer) error {
			d := (*sysCreateDumb)(arg)
			d.handle = 5
			d.pitch = d.width * d.bpp / 8
			d.size = uint64(d.pitch) * uint64(d.height)
			return nil
		}).
		On(IOCTLModeMapDumb, func(arg unsafe.Pointer) error {
			m := (*sysMapDumb)(arg)
			if m.handle != 5 {
				return unix.ENOENT
			}
			m.offset = 0x10000
			return nil
		}).
		On(IOCTLModeDestroyDumb, func(arg unsafe.Pointer) error {
			destroyed = (*sysDestroyDumb)(arg).handle
			return nil
		})

	db, err := CreateDumb(dev, 640, 480, 32, 0)
	require.NoError(t, err)
	assert.Equal(t, &DumbBuffer{Width: 640, Height: 480, BPP: 32, Handle: 5, Pitch: 2560, Size: 2560 * 480}, db)

	off, err := MapDumb(dev, db.Handle)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10000), off)

	_, err = MapDumb(dev, 6)
	require.ErrorIs(t, err, unix.ENOENT)

	require.NoError(t, DestroyDumb(dev, db.Handle))
	assert.Equal(t, uint32(5), destroyed)
}

func TestCursor(t *testing.T) {
	var c sysCursor
	var c2 sysCursor2
	dev := fake.New().
		On(IOCTLModeCursor, func(arg unsafe.Pointer) error {
			c = *(*sysCursor)(arg)
			return nil
		}).
		On(IOCTLModeCursor2, func(arg unsafe.Pointer) error {
			c2 = *(*sysCursor2)(arg)
			return nil
		})

	require.NoError(t, SetCursor(dev, 40, 9, 64, 64))
	assert.Equal(t, sysCursor{flags: CursorBO, crtcID: 40, width: 64, height: 64, handle: 9}, c)

	require.NoError(t, MoveCursor(dev, 40, -3, 7))
	assert.Equal(t, sysCursor{flags: CursorMove, crtcID: 40, x: -3, y: 7}, c)

	require.NoError(t, SetCursor2(dev, 40, 9, 64, 64, 2, 3))
	assert.Equal(t, int32(2), c2.hotX)
	assert.Equal(t, int32(3), c2.hotY)
	assert.Equal(t, uint32(CursorBO), c2.flags)
}
