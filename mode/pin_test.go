package mode

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrshiposha/drm/internal/fake"
)

func TestSetCrtcConnectorsStayPut(t *testing.T) {
	var (
		addr uint64
		got  []Handle
	)
	dev := fake.New().On(IOCTLModeSetCrtc, fake.GrowingStack(func(arg unsafe.Pointer) error {
		c := (*sysCrtc)(arg)
		addr = c.setConnectorsPtr
		got = fake.CopyIn[Handle](c.setConnectorsPtr, c.countConnectors)
		return nil
	}))

	conns := [...]Handle{41, 42, 43, 44}
	require.NoError(t, SetCrtc(dev, 40, 70, 0, 0, conns[:], nil))

	assert.Equal(t, uint64(uintptr(unsafe.Pointer(&conns[0]))), addr)
	assert.Equal(t, []Handle{41, 42, 43, 44}, got)
}

func TestGetGammaAcrossStackGrowth(t *testing.T) {
	dev := fake.New().On(IOCTLModeGetGamma, fake.GrowingStack(func(arg unsafe.Pointer) error {
		lut := (*sysCrtcLut)(arg)
		fake.CopyOut(lut.red, lut.gammaSize, []uint16{1, 2, 3, 4})
		fake.CopyOut(lut.green, lut.gammaSize, []uint16{5, 6, 7, 8})
		fake.CopyOut(lut.blue, lut.gammaSize, []uint16{9, 10, 11, 12})
		return nil
	}))

	var r, g, b [4]uint16
	require.NoError(t, GetGamma(dev, 40, r[:], g[:], b[:]))
	assert.Equal(t, [4]uint16{1, 2, 3, 4}, r)
	assert.Equal(t, [4]uint16{5, 6, 7, 8}, g)
	assert.Equal(t, [4]uint16{9, 10, 11, 12}, b)
}

func TestAtomicCommitAcrossStackGrowth(t *testing.T) {
	var got sysAtomic
	var props []Handle
	var values []uint64
	dev := fake.New().On(IOCTLModeAtomic, fake.GrowingStack(func(arg unsafe.Pointer) error {
		got = *(*sysAtomic)(arg)
		props = fake.CopyIn[Handle](got.propsPtr, 2)
		values = fake.CopyIn[uint64](got.propValuesPtr, 2)
		return nil
	}))

	objs := [...]Handle{60}
	counts := [...]uint32{2}
	ids := [...]Handle{20, 21}
	vals := [...]uint64{70, 40}
	require.NoError(t, AtomicCommit(dev, 0, objs[:], counts[:], ids[:], vals[:]))

	assert.Equal(t, []Handle{60}, fake.CopyIn[Handle](got.objsPtr, got.countObjs))
	assert.Equal(t, []Handle{20, 21}, props)
	assert.Equal(t, []uint64{70, 40}, values)
}

func TestGetConnectorCachedAcrossStackGrowth(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, fake.GrowingStack(k.handler))

	conn, err := GetConnector(dev, 30, nil, nil, nil, false)
	require.NoError(t, err)
	require.NotNil(t, conn.CachedMode)
	assert.Equal(t, "1920x1080", conn.CachedMode.String())
}
