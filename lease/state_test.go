package lease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm/mode"
)

func TestLeaseLifecycle(t *testing.T) {
	g, dev := newGrantor(t)

	l := New(dev, 40, 30)
	assert.Equal(t, Unleased, l.State())
	assert.Nil(t, l.Card())

	require.NoError(t, l.Create(unix.O_CLOEXEC|unix.O_NONBLOCK))
	assert.Equal(t, Leased, l.State())
	assert.Equal(t, LesseeID(1), l.ID())
	require.NotNil(t, l.Card())
	assert.Equal(t, []mode.Handle{40, 30}, g.leases[1])

	require.ErrorIs(t, l.Create(0), ErrState)

	require.NoError(t, l.Revoke())
	assert.Equal(t, Revoked, l.State())

	// no way back: the kernel refuses the id and the state sticks
	require.ErrorIs(t, l.Revoke(), unix.ENOENT)
	assert.Equal(t, Revoked, l.State())
	require.ErrorIs(t, l.Create(0), ErrState)

	require.NoError(t, l.Close())
	assert.Nil(t, l.Card())
}

func TestLeaseRevokeUnleased(t *testing.T) {
	_, dev := newGrantor(t)

	l := New(dev, 40)
	require.ErrorIs(t, l.Revoke(), ErrState)
	assert.Empty(t, dev.Calls)
}

func TestLeaseCloseRevokes(t *testing.T) {
	g, dev := newGrantor(t)

	l := New(dev, 40, 30)
	require.NoError(t, l.Create(0))
	require.NoError(t, l.Close())

	assert.Empty(t, g.leases)
	assert.Equal(t, Revoked, l.State())
	assert.Equal(t, 1, dev.Count(IOCTLRevokeLease))
}

func TestLeaseCreateFails(t *testing.T) {
	_, dev := newGrantor(t)

	first := New(dev, 40)
	require.NoError(t, first.Create(0))
	t.Cleanup(func() { first.Close() })

	second := New(dev, 40)
	require.ErrorIs(t, second.Create(0), unix.EBUSY)
	assert.Equal(t, Unleased, second.State())
	require.NoError(t, second.Close())
}

func TestLeaseObjects(t *testing.T) {
	_, dev := newGrantor(t)

	l := New(dev, 40)
	_, err := l.Objects()
	require.ErrorIs(t, err, ErrState)

	require.NoError(t, l.Create(0))
	t.Cleanup(func() { l.Close() })

	// the fake lessee handle is a pipe, which has no DRM ioctls
	_, err = l.Objects()
	require.ErrorIs(t, err, unix.ENOTTY)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "leased", Leased.String())
	assert.Equal(t, "State(9)", State(9).String())
}
