package mode

import (
	"fmt"
	"runtime"

	"github.com/mrshiposha/drm/internal/fetch"
)

// Handle names a kernel mode setting object: framebuffer, CRTC,
// connector, encoder, plane, property or blob. Zero never names an
// allocated object; requests that accept "none" take a zero Handle.
type Handle uint32

// HandleFrom converts a raw id, rejecting zero.
func HandleFrom(id uint32) (Handle, bool) {
	return Handle(id), id != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d", uint32(h))
}

// ObjectType tags a Handle for the object property calls.
type ObjectType uint32

const (
	ObjectCrtc      ObjectType = 0xcccccccc
	ObjectConnector ObjectType = 0xc0c0c0c0
	ObjectEncoder   ObjectType = 0xe0e0e0e0
	ObjectMode      ObjectType = 0xdededede
	ObjectProperty  ObjectType = 0xb0b0b0b0
	ObjectFB        ObjectType = 0xfbfbfbfb
	ObjectBlob      ObjectType = 0xbbbbbbbb
	ObjectPlane     ObjectType = 0xeeeeeeee
	ObjectAny       ObjectType = 0
)

var objectTypeNames = map[ObjectType]string{
	ObjectCrtc:      "crtc",
	ObjectConnector: "connector",
	ObjectEncoder:   "encoder",
	ObjectMode:      "mode",
	ObjectProperty:  "property",
	ObjectFB:        "fb",
	ObjectBlob:      "blob",
	ObjectPlane:     "plane",
	ObjectAny:       "any",
}

func (t ObjectType) String() string {
	if s, ok := objectTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ObjectType(0x%x)", uint32(t))
}

// ParseObjectType is the inverse of ObjectType.String.
func ParseObjectType(s string) (ObjectType, error) {
	for t, name := range objectTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// field binds one optional destination slice to a count/pointer pair of
// record R.
func field[R, T any](dst *[]T, at func(r *R) (*uint32, *uint64)) fetch.Field[R] {
	return fetch.Field[R]{
		Array: fetch.Into(dst),
		Count: func(r *R) *uint32 {
			c, _ := at(r)
			return c
		},
		Ptrs: func(r *R) []*uint64 {
			_, p := at(r)
			return []*uint64{p}
		},
	}
}

// ptr returns the address of the first element of s, 0 when s is empty.
// s stays pinned until pin.Unpin, which must not run before the ioctl
// using it returns.
func ptr[T any](pin *runtime.Pinner, s []T) uint64 {
	return fetch.Pin(pin, s)
}
