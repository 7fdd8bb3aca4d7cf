package mode

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/ioctl"
)

// Property flags. The legacy types are single bits, the extended ones
// are encoded in PropExtendedType.
const (
	PropPending   = 1 << 0
	PropRange     = 1 << 1
	PropImmutable = 1 << 2
	PropEnum      = 1 << 3
	PropBlob      = 1 << 4
	PropBitmask   = 1 << 5

	PropLegacyType   = PropRange | PropEnum | PropBlob | PropBitmask
	PropExtendedType = 0x0000ffc0

	PropObject      = 1 << 6
	PropSignedRange = 2 << 6

	PropAtomic = 0x80000000
)

// ErrUnpairedBuffers is returned when only one of the property id and
// property value buffers is given.
var ErrUnpairedBuffers = errors.New("mode: property ids and values must be requested together")

type (
	sysGetProperty struct {
		valuesPtr   uint64
		enumBlobPtr uint64

		propID uint32
		flags  uint32
		name   [PropNameLen]uint8

		countValues    uint32
		countEnumBlobs uint32
	}

	sysGetBlob struct {
		blobID uint32
		length uint32
		data   uint64
	}

	sysCreateBlob struct {
		data   uint64
		length uint32
		blobID uint32
	}

	sysDestroyBlob struct {
		blobID uint32
	}

	sysObjGetProperties struct {
		propsPtr      uint64
		propValuesPtr uint64
		countProps    uint32
		objID         uint32
		objType       uint32
	}

	sysObjSetProperty struct {
		value   uint64
		propID  uint32
		objID   uint32
		objType uint32
	}

	// PropertyEnum is one name/value entry of an enum or bitmask
	// property, or for blob properties the id of a blob.
	PropertyEnum struct {
		Value uint64
		Name  [PropNameLen]uint8
	}

	Property struct {
		ID    Handle
		Flags uint32
		Name  string

		CountValues    uint32
		CountEnumBlobs uint32
	}

	// Blob is the header of a property blob; its bytes land in the
	// buffer passed to GetPropertyBlob.
	Blob struct {
		ID     Handle
		Length uint32
	}

	ObjectProperties struct {
		ObjID      Handle
		ObjType    ObjectType
		CountProps uint32
	}

	// PropertyList receives property ids and their values in lockstep.
	// A nil *PropertyList asks for neither.
	PropertyList struct {
		IDs    []Handle
		Values []uint64
	}
)

func (e *PropertyEnum) String() string {
	return cstring(e.Name[:])
}

// Type returns the legacy or extended type bits of the property.
func (p *Property) Type() uint32 {
	return p.Flags & (PropLegacyType | PropExtendedType)
}

// Pair builds a PropertyList over two separately held buffers. Both
// nil yields a nil list; exactly one nil is ErrUnpairedBuffers.
func Pair(ids *[]Handle, values *[]uint64) (*PropertyList, error) {
	switch {
	case ids == nil && values == nil:
		return nil, nil
	case ids == nil || values == nil:
		return nil, ErrUnpairedBuffers
	}
	return &PropertyList{IDs: *ids, Values: *values}, nil
}

func (l *PropertyList) array() fetch.Array {
	if l == nil {
		return fetch.Both[Handle, uint64](nil, nil)
	}
	return fetch.Both(&l.IDs, &l.Values)
}

// GetProperty describes a property. values receives the range limits or
// the possible values, enums the enum entries or blob ids.
func GetProperty(dev ioctl.Device, propid Handle, values *[]uint64, enums *[]PropertyEnum) (*Property, error) {
	q := &fetch.Request[sysGetProperty]{
		Dev:  dev,
		Code: IOCTLModeGetProperty,
		Key:  func() sysGetProperty { return sysGetProperty{propID: uint32(propid)} },
		Fields: []fetch.Field[sysGetProperty]{
			field(values, func(r *sysGetProperty) (*uint32, *uint64) { return &r.countValues, &r.valuesPtr }),
			field(enums, func(r *sysGetProperty) (*uint32, *uint64) { return &r.countEnumBlobs, &r.enumBlobPtr }),
		},
	}
	prop, err := q.Do()
	if err != nil {
		return nil, err
	}
	return &Property{
		ID:             Handle(prop.propID),
		Flags:          prop.flags,
		Name:           cstring(prop.name[:]),
		CountValues:    prop.countValues,
		CountEnumBlobs: prop.countEnumBlobs,
	}, nil
}

// GetPropertyBlob reads the bytes of blob blobid into data. A nil data
// only queries the length.
func GetPropertyBlob(dev ioctl.Device, blobid Handle, data *[]byte) (*Blob, error) {
	f := field(data, func(r *sysGetBlob) (*uint32, *uint64) { return &r.length, &r.data })
	f.Exact = true
	q := &fetch.Request[sysGetBlob]{
		Dev:    dev,
		Code:   IOCTLModeGetPropBlob,
		Key:    func() sysGetBlob { return sysGetBlob{blobID: uint32(blobid)} },
		Fields: []fetch.Field[sysGetBlob]{f},
	}
	blob, err := q.Do()
	if err != nil {
		return nil, err
	}
	return &Blob{ID: Handle(blob.blobID), Length: blob.length}, nil
}

func CreatePropertyBlob(dev ioctl.Device, data []byte) (Handle, error) {
	var pin runtime.Pinner
	defer pin.Unpin()
	blob := &sysCreateBlob{
		data:   ptr(&pin, data),
		length: uint32(len(data)),
	}
	err := dev.Ioctl(IOCTLModeCreatePropBlob, unsafe.Pointer(blob))
	if err != nil {
		return 0, err
	}
	return Handle(blob.blobID), nil
}

func DestroyPropertyBlob(dev ioctl.Device, blobid Handle) error {
	return dev.Ioctl(IOCTLModeDestroyPropBlob, unsafe.Pointer(&sysDestroyBlob{uint32(blobid)}))
}

// GetProperties lists the properties attached to an object and their
// current values.
func GetProperties(dev ioctl.Device, objid Handle, objtype ObjectType, props *PropertyList) (*ObjectProperties, error) {
	q := &fetch.Request[sysObjGetProperties]{
		Dev:  dev,
		Code: IOCTLModeObjGetProperties,
		Key: func() sysObjGetProperties {
			return sysObjGetProperties{objID: uint32(objid), objType: uint32(objtype)}
		},
		Fields: []fetch.Field[sysObjGetProperties]{
			{
				Array: props.array(),
				Count: func(r *sysObjGetProperties) *uint32 { return &r.countProps },
				Ptrs: func(r *sysObjGetProperties) []*uint64 {
					return []*uint64{&r.propsPtr, &r.propValuesPtr}
				},
			},
		},
	}
	info, err := q.Do()
	if err != nil {
		return nil, err
	}
	return &ObjectProperties{
		ObjID:      Handle(info.objID),
		ObjType:    ObjectType(info.objType),
		CountProps: info.countProps,
	}, nil
}

// GetObjectProperties is GetProperties for callers holding the id and
// value buffers separately. Passing exactly one of them fails with
// ErrUnpairedBuffers before any ioctl is issued.
func GetObjectProperties(dev ioctl.Device, objid Handle, objtype ObjectType, ids *[]Handle, values *[]uint64) (*ObjectProperties, error) {
	props, err := Pair(ids, values)
	if err != nil {
		return nil, err
	}
	info, err := GetProperties(dev, objid, objtype, props)
	if err != nil {
		return nil, err
	}
	if props != nil {
		*ids = props.IDs
		*values = props.Values
	}
	return info, nil
}

// SetProperty sets one property of any object type.
func SetProperty(dev ioctl.Device, objid Handle, objtype ObjectType, propid Handle, value uint64) error {
	prop := &sysObjSetProperty{
		value:   value,
		propID:  uint32(propid),
		objID:   uint32(objid),
		objType: uint32(objtype),
	}
	return dev.Ioctl(IOCTLModeObjSetProperty, unsafe.Pointer(prop))
}

func cstring(b []uint8) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
