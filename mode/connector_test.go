package mode

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm/internal/fake"
)

type connectorState struct {
	modes    []Info
	encoders []Handle
	props    []Handle
	values   []uint64
}

// connectorKernel serves GETCONNECTOR from states, one per ioctl; the
// last state repeats. It counts how often the caller forced a probe by
// passing zero mode slots.
type connectorKernel struct {
	states []connectorState
	calls  int
	probes int
}

func (k *connectorKernel) handler(arg unsafe.Pointer) error {
	c := (*sysGetConnector)(arg)
	if c.connectorID != 30 {
		return unix.ENOENT
	}
	s := k.states[min(k.calls, len(k.states)-1)]
	k.calls++
	if c.countModes == 0 {
		k.probes++
	}

	c.encoderID = 50
	c.connectorType = ConnectorHDMIA
	c.connectorTypeID = 1
	c.connection = Connected
	c.mmWidth, c.mmHeight = 600, 340
	c.subpixel = 0

	c.countModes = fake.CopyOut(c.modesPtr, c.countModes, s.modes)
	c.countEncoders = fake.CopyOut(c.encodersPtr, c.countEncoders, s.encoders)
	n := c.countProps
	c.countProps = fake.CopyOut(c.propsPtr, n, s.props)
	fake.CopyOut(c.propValuesPtr, n, s.values)
	return nil
}

func oneMode() connectorState {
	return connectorState{
		modes:    []Info{testMode("1920x1080", 1920, 1080)},
		encoders: []Handle{50},
		props:    []Handle{1, 2},
		values:   []uint64{10, 20},
	}
}

func TestGetConnectorCachedNoBuffers(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	conn, err := GetConnector(dev, 30, nil, nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, k.calls)
	assert.Zero(t, k.probes)
	assert.Equal(t, uint32(1), conn.CountModes)
	assert.Equal(t, uint32(2), conn.CountProps)
	require.NotNil(t, conn.CachedMode)
	assert.Equal(t, "1920x1080", conn.CachedMode.String())
	assert.Equal(t, "HDMI-A-1", conn.Name())
	assert.Equal(t, uint8(Connected), conn.Connection)
	assert.Equal(t, uint8(1), conn.Subpixel)
}

func TestGetConnectorCachedWithBuffer(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	var modes []Info
	conn, err := GetConnector(dev, 30, nil, &modes, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, k.calls)
	assert.Zero(t, k.probes)
	require.Len(t, modes, 1)
	assert.Equal(t, uint16(1920), modes[0].Hdisplay)
	assert.Nil(t, conn.CachedMode)
}

func TestGetConnectorAllArrays(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	var (
		props    PropertyList
		modes    []Info
		encoders []Handle
	)
	conn, err := GetConnector(dev, 30, &props, &modes, &encoders, false)
	require.NoError(t, err)

	assert.Equal(t, 2, k.calls)
	assert.Equal(t, Handle(30), conn.ID)
	assert.Equal(t, Handle(50), conn.EncoderID)
	assert.Equal(t, uint32(600), conn.Width)
	assert.Equal(t, []Handle{1, 2}, props.IDs)
	assert.Equal(t, []uint64{10, 20}, props.Values)
	assert.Equal(t, []Handle{50}, encoders)
	assert.Len(t, modes, 1)
}

func TestGetConnectorJointConvergence(t *testing.T) {
	// a property appears between the probe and the fetch while the modes
	// stay stable; all arrays are fetched again
	more := oneMode()
	more.props = []Handle{1, 2, 3}
	more.values = []uint64{10, 20, 30}
	k := &connectorKernel{states: []connectorState{oneMode(), more, more}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	var (
		props PropertyList
		modes []Info
	)
	conn, err := GetConnector(dev, 30, &props, &modes, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 3, k.calls)
	assert.Equal(t, uint32(3), conn.CountProps)
	assert.Equal(t, []Handle{1, 2, 3}, props.IDs)
	assert.Equal(t, []uint64{10, 20, 30}, props.Values)
	assert.Len(t, modes, 1)
}

func TestGetConnectorModesAppear(t *testing.T) {
	// nothing cached at the probe, two modes by the time of the fetch
	empty := oneMode()
	empty.modes = nil
	two := oneMode()
	two.modes = []Info{testMode("1920x1080", 1920, 1080), testMode("1280x720", 1280, 720)}
	k := &connectorKernel{states: []connectorState{empty, two, two}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	modes := make([]Info, 5)
	conn, err := GetConnector(dev, 30, nil, &modes, nil, false)
	require.NoError(t, err)

	assert.Zero(t, k.probes)
	assert.Equal(t, uint32(2), conn.CountModes)
	require.Len(t, modes, 2)
	assert.Equal(t, "1280x720", modes[1].String())
}

func TestGetConnectorForceProbe(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	var modes []Info
	_, err := GetConnector(dev, 30, nil, &modes, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 1, k.probes)
	assert.Len(t, modes, 1)
}

func TestGetConnectorError(t *testing.T) {
	k := &connectorKernel{states: []connectorState{oneMode()}}
	dev := fake.New().On(IOCTLModeGetConnector, k.handler)

	var modes []Info
	_, err := GetConnector(dev, 31, nil, &modes, nil, false)
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestSetConnectorProperty(t *testing.T) {
	var got sysConnectorSetProperty
	dev := fake.New().On(IOCTLModeSetProperty, func(arg unsafe.Pointer) error {
		got = *(*sysConnectorSetProperty)(arg)
		return nil
	})

	require.NoError(t, SetConnectorProperty(dev, 30, 2, 3))
	assert.Equal(t, sysConnectorSetProperty{value: 3, propID: 2, connectorID: 30}, got)
}

func TestConnectorTypeName(t *testing.T) {
	assert.Equal(t, "eDP", ConnectorTypeName(ConnectorEDP))
	assert.Equal(t, "Type99", ConnectorTypeName(99))
}
