package lease

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/ioctl"
	"github.com/mrshiposha/drm/mode"
)

type State int

const (
	Unleased State = iota
	Leased
	Revoked
)

func (s State) String() string {
	switch s {
	case Unleased:
		return "unleased"
	case Leased:
		return "leased"
	case Revoked:
		return "revoked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrState is returned when a Lease operation does not apply to its
// current state.
var ErrState = errors.New("lease: invalid state")

// Lease tracks one grant of objects from a grantor device. A Lease is
// not safe for concurrent use.
type Lease struct {
	grantor ioctl.Device
	objects []mode.Handle

	state State
	id    LesseeID
	card  *drm.Card
}

// New prepares a lease of objects on grantor. Nothing is granted
// until Create.
func New(grantor ioctl.Device, objects ...mode.Handle) *Lease {
	return &Lease{
		grantor: grantor,
		objects: objects,
	}
}

// Create grants the objects. It may only be called once.
func (l *Lease) Create(flags uint32) error {
	if l.state != Unleased {
		return fmt.Errorf("%w: create on %s lease", ErrState, l.state)
	}
	id, card, err := CreateLease(l.grantor, l.objects, flags)
	if err != nil {
		return err
	}
	l.id, l.card, l.state = id, card, Leased
	return nil
}

// Revoke ends the lease. A revoked lease is passed to the kernel again
// and the kernel's error is returned; the state stays Revoked.
func (l *Lease) Revoke() error {
	if l.state == Unleased {
		return fmt.Errorf("%w: revoke on unleased lease", ErrState)
	}
	if err := RevokeLease(l.grantor, l.id); err != nil {
		return err
	}
	l.state = Revoked
	return nil
}

// Objects asks the lessee handle which objects it holds. After
// revocation the kernel reports none.
func (l *Lease) Objects() ([]mode.Handle, error) {
	if l.card == nil {
		return nil, fmt.Errorf("%w: no lessee handle", ErrState)
	}
	var objs []mode.Handle
	if _, err := GetLease(l.card, &objs); err != nil {
		return nil, err
	}
	return objs, nil
}

// Close revokes a live lease and closes the lessee handle.
func (l *Lease) Close() error {
	var errs []error
	if l.state == Leased {
		errs = append(errs, l.Revoke())
	}
	if l.card != nil {
		errs = append(errs, l.card.Close())
		l.card = nil
	}
	return errors.Join(errs...)
}

func (l *Lease) State() State { return l.state }

func (l *Lease) ID() LesseeID { return l.id }

// Card is the lessee handle, nil before Create and after Close.
func (l *Lease) Card() *drm.Card { return l.card }

// ParseFlags maps flag names to creation flags. Known names are
// "cloexec" and "nonblock".
func ParseFlags(names []string) (uint32, error) {
	var flags uint32
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "cloexec":
			flags |= unix.O_CLOEXEC
		case "nonblock":
			flags |= unix.O_NONBLOCK
		case "":
		default:
			return 0, fmt.Errorf("lease: unknown flag %q", n)
		}
	}
	return flags, nil
}
