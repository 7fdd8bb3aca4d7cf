// Port of modeset.c example to Go
// Source: https://github.com/dvdhrm/docs/blob/master/drm-howto/modeset.c

package mode

import (
	"fmt"

	"github.com/mrshiposha/drm/ioctl"
)

type (
	Modeset struct {
		Width, Height uint16

		Mode Info
		Conn Handle
		Crtc Handle
	}

	SimpleModeset struct {
		Modesets []Modeset
		dev      ioctl.Device

		crtcs      []Handle
		connectors []Handle
		encoders   []Handle
		modes      []Info
	}
)

func (mset *SimpleModeset) prepare() error {
	_, err := GetResources(mset.dev, nil, &mset.crtcs, &mset.connectors, nil)
	if err != nil {
		return fmt.Errorf("Cannot retrieve resources: %w", err)
	}

	for i := 0; i < len(mset.connectors); i++ {
		conn, err := GetConnector(mset.dev, mset.connectors[i], nil, &mset.modes, &mset.encoders, false)
		if err != nil {
			return fmt.Errorf("Cannot retrieve connector: %w", err)
		}

		dev := Modeset{}
		dev.Conn = conn.ID
		ok, err := mset.setupDev(conn, &dev)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		mset.Modesets = append(mset.Modesets, dev)
	}

	return nil
}

func (mset *SimpleModeset) setupDev(conn *Connector, dev *Modeset) (bool, error) {
	// check if a monitor is connected
	if conn.Connection != Connected {
		return false, nil
	}

	// check if there is at least one valid mode
	if len(mset.modes) == 0 {
		return false, fmt.Errorf("no valid mode for connector %d", conn.ID)
	}
	dev.Mode = mset.modes[0]
	dev.Width = mset.modes[0].Hdisplay
	dev.Height = mset.modes[0].Vdisplay

	err := mset.findCrtc(conn, dev)
	if err != nil {
		return false, fmt.Errorf("no valid crtc for connector %d: %w", conn.ID, err)
	}

	return true, nil
}

func (mset *SimpleModeset) used(crtcid Handle) bool {
	for i := 0; i < len(mset.Modesets); i++ {
		if mset.Modesets[i].Crtc == crtcid {
			return true
		}
	}
	return false
}

func (mset *SimpleModeset) findCrtc(conn *Connector, dev *Modeset) error {
	if conn.EncoderID != 0 {
		encoder, err := GetEncoder(mset.dev, conn.EncoderID)
		if err != nil {
			return err
		}
		if encoder.CrtcID != 0 && !mset.used(encoder.CrtcID) {
			dev.Crtc = encoder.CrtcID
			return nil
		}
	}

	// If the connector is not currently bound to an encoder or if the
	// encoder+crtc is already used by another connector (actually unlikely
	// but lets be safe), iterate all other available encoders to find a
	// matching CRTC.
	for i := 0; i < len(mset.encoders); i++ {
		encoder, err := GetEncoder(mset.dev, mset.encoders[i])
		if err != nil {
			return fmt.Errorf("Cannot retrieve encoder: %w", err)
		}
		// iterate all global CRTCs
		for j := 0; j < len(mset.crtcs); j++ {
			// check whether this CRTC works with the encoder
			if (encoder.PossibleCrtcs & (1 << uint(j))) == 0 {
				continue
			}

			// we have found a CRTC, so save it and return
			if !mset.used(mset.crtcs[j]) {
				dev.Crtc = mset.crtcs[j]
				return nil
			}
		}
	}

	return fmt.Errorf("Cannot find a suitable CRTC for connector %d", conn.ID)
}

// SetCrtc restores savedCrtc on the connector of dev.
func (mset *SimpleModeset) SetCrtc(dev *Modeset, savedCrtc *Crtc) error {
	var mode *Info
	if savedCrtc.ModeValid != 0 {
		mode = &savedCrtc.Mode
	}
	err := SetCrtc(mset.dev, savedCrtc.ID,
		savedCrtc.BufferID,
		savedCrtc.X, savedCrtc.Y,
		[]Handle{dev.Conn},
		mode,
	)
	if err != nil {
		return fmt.Errorf("Failed to restore CRTC: %w", err)
	}

	return nil
}

// NewSimpleModeset pairs every connected connector with its preferred
// mode and a free CRTC.
func NewSimpleModeset(dev ioctl.Device) (*SimpleModeset, error) {
	var err error

	mset := &SimpleModeset{
		dev: dev,
	}
	err = mset.prepare()
	if err != nil {
		return nil, err
	}

	return mset, nil
}
