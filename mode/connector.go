package mode

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/mrshiposha/drm/internal/fetch"
	"github.com/mrshiposha/drm/ioctl"
)

// Connector types as reported in Connector.Type.
const (
	ConnectorUnknown = iota
	ConnectorVGA
	ConnectorDVII
	ConnectorDVID
	ConnectorDVIA
	ConnectorComposite
	ConnectorSVideo
	ConnectorLVDS
	ConnectorComponent
	Connector9PinDIN
	ConnectorDisplayPort
	ConnectorHDMIA
	ConnectorHDMIB
	ConnectorTV
	ConnectorEDP
	ConnectorVirtual
	ConnectorDSI
	ConnectorDPI
	ConnectorWriteback
	ConnectorSPI
	ConnectorUSB
)

var connectorTypeNames = [...]string{
	ConnectorUnknown:     "Unknown",
	ConnectorVGA:         "VGA",
	ConnectorDVII:        "DVI-I",
	ConnectorDVID:        "DVI-D",
	ConnectorDVIA:        "DVI-A",
	ConnectorComposite:   "Composite",
	ConnectorSVideo:      "SVIDEO",
	ConnectorLVDS:        "LVDS",
	ConnectorComponent:   "Component",
	Connector9PinDIN:     "DIN",
	ConnectorDisplayPort: "DP",
	ConnectorHDMIA:       "HDMI-A",
	ConnectorHDMIB:       "HDMI-B",
	ConnectorTV:          "TV",
	ConnectorEDP:         "eDP",
	ConnectorVirtual:     "Virtual",
	ConnectorDSI:         "DSI",
	ConnectorDPI:         "DPI",
	ConnectorWriteback:   "Writeback",
	ConnectorSPI:         "SPI",
	ConnectorUSB:         "USB",
}

type (
	sysGetConnector struct {
		encodersPtr   uint64
		modesPtr      uint64
		propsPtr      uint64
		propValuesPtr uint64

		countModes    uint32
		countProps    uint32
		countEncoders uint32

		encoderID       uint32 // current encoder
		connectorID     uint32
		connectorType   uint32
		connectorTypeID uint32

		connection        uint32
		mmWidth, mmHeight uint32 // HxW in millimeters
		subpixel          uint32

		pad uint32
	}

	sysConnectorSetProperty struct {
		value       uint64
		propID      uint32
		connectorID uint32
	}

	Connector struct {
		ID            Handle
		EncoderID     Handle
		Type          uint32
		TypeID        uint32
		Connection    uint8
		Width, Height uint32 // in millimeters
		Subpixel      uint8

		CountModes    uint32
		CountProps    uint32
		CountEncoders uint32

		// CachedMode is the connector's only mode when GetConnector was
		// called without a mode buffer and without forcing a probe, and
		// the kernel had exactly one mode cached.
		CachedMode *Info
	}
)

// Name returns the conventional connector name, e.g. "HDMI-A-1".
func (c *Connector) Name() string {
	return fmt.Sprintf("%s-%d", ConnectorTypeName(c.Type), c.TypeID)
}

func ConnectorTypeName(typ uint32) string {
	if int(typ) < len(connectorTypeNames) {
		return connectorTypeNames[typ]
	}
	return fmt.Sprintf("Type%d", typ)
}

// GetConnector fetches a connector together with its properties, modes
// and encoders, all of which are optional. The four arrays are read by
// one ioctl and retried together until their counts agree.
//
// With forceProbe the kernel re-detects the connector, which may take a
// long time. Otherwise at least one mode slot is always passed so the
// kernel reports what it has cached.
func GetConnector(dev ioctl.Device, connid Handle, props *PropertyList, modes *[]Info, encoders *[]Handle, forceProbe bool) (*Connector, error) {
	var pin runtime.Pinner
	defer pin.Unpin()
	scratch := make([]Info, 1)
	scratchPtr := ptr(&pin, scratch)
	var minModes uint32
	if !forceProbe {
		minModes = 1
	}

	q := &fetch.Request[sysGetConnector]{
		Dev:  dev,
		Code: IOCTLModeGetConnector,
		Key: func() sysGetConnector {
			conn := sysGetConnector{connectorID: uint32(connid)}
			if !forceProbe {
				conn.modesPtr = scratchPtr
				conn.countModes = 1
			}
			return conn
		},
		Fields: []fetch.Field[sysGetConnector]{
			{
				Array: props.array(),
				Count: func(r *sysGetConnector) *uint32 { return &r.countProps },
				Ptrs: func(r *sysGetConnector) []*uint64 {
					return []*uint64{&r.propsPtr, &r.propValuesPtr}
				},
			},
			{
				Array: fetch.Into(modes),
				Count: func(r *sysGetConnector) *uint32 { return &r.countModes },
				Ptrs:  func(r *sysGetConnector) []*uint64 { return []*uint64{&r.modesPtr} },
				Min:   minModes,
			},
			field(encoders, func(r *sysGetConnector) (*uint32, *uint64) { return &r.countEncoders, &r.encodersPtr }),
		},
	}
	conn, err := q.Do()
	if err != nil {
		return nil, err
	}

	ret := &Connector{
		ID:         Handle(conn.connectorID),
		EncoderID:  Handle(conn.encoderID),
		Connection: uint8(conn.connection),
		Width:      conn.mmWidth,
		Height:     conn.mmHeight,

		// convert subpixel from kernel to userspace
		Subpixel: uint8(conn.subpixel + 1),
		Type:     conn.connectorType,
		TypeID:   conn.connectorTypeID,

		CountModes:    conn.countModes,
		CountProps:    conn.countProps,
		CountEncoders: conn.countEncoders,
	}
	if modes == nil && !forceProbe && conn.countModes == 1 {
		ret.CachedMode = &scratch[0]
	}

	return ret, nil
}

// SetConnectorProperty is the legacy connector-only form of
// SetProperty.
func SetConnectorProperty(dev ioctl.Device, connid, propid Handle, value uint64) error {
	prop := &sysConnectorSetProperty{
		value:       value,
		propID:      uint32(propid),
		connectorID: uint32(connid),
	}
	return dev.Ioctl(IOCTLModeSetProperty, unsafe.Pointer(prop))
}
