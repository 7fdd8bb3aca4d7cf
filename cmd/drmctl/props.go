package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/ioctl"
	"github.com/mrshiposha/drm/mode"
)

var propsCmd = &cobra.Command{
	Use:   "props <object> <type>",
	Short: "Show the properties of a mode object",
	Long: `Show the properties of a mode object and their current values.

type is one of crtc, connector, encoder, plane, fb, mode, property, blob.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := parseHandle(args[0])
		if err != nil {
			return err
		}
		typ, err := mode.ParseObjectType(args[1])
		if err != nil {
			return err
		}

		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		enableAtomic(card)

		var props mode.PropertyList
		if _, err := mode.GetProperties(card, obj, typ, &props); err != nil {
			return fmt.Errorf("failed to get properties of %s %s: %w", typ, obj, err)
		}

		t := newTable("ID", "NAME", "FLAGS", "VALUE")
		var enums []mode.PropertyEnum
		for i, id := range props.IDs {
			prop, err := mode.GetProperty(card, id, nil, &enums)
			if err != nil {
				return fmt.Errorf("failed to get property %s: %w", id, err)
			}
			t.Row(id.String(), prop.Name, propFlags(prop), propValue(card, prop, props.Values[i], enums))
		}

		w := cmd.OutOrStdout()
		printHeader(w, fmt.Sprintf("%s %s", typ, obj))
		printTable(w, t)
		return nil
	},
}

// enableAtomic requests the client caps plane and crtc properties are
// exposed under. Failing that the listing is left to what the card
// shows without them.
func enableAtomic(dev ioctl.Device) {
	if err := drm.SetClientCap(dev, drm.ClientCapUniversalPlanes, 1); err != nil {
		logger.Warn("universal planes not supported, plane properties may be missing", "err", err)
	}
	if err := drm.SetClientCap(dev, drm.ClientCapAtomic, 1); err != nil {
		logger.Warn("atomic not supported, atomic properties may be missing", "err", err)
	}
}

func parseHandle(s string) (mode.Handle, error) {
	u, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	h, ok := mode.HandleFrom(uint32(u))
	if !ok {
		return 0, fmt.Errorf("object id must not be zero")
	}
	return h, nil
}

func propFlags(p *mode.Property) string {
	var s string
	switch {
	case p.Flags&mode.PropRange != 0:
		s = "range"
	case p.Flags&mode.PropEnum != 0:
		s = "enum"
	case p.Flags&mode.PropBlob != 0:
		s = "blob"
	case p.Flags&mode.PropBitmask != 0:
		s = "bitmask"
	case p.Type() == mode.PropObject:
		s = "object"
	case p.Type() == mode.PropSignedRange:
		s = "signed range"
	}
	if p.Flags&mode.PropImmutable != 0 {
		s += " immutable"
	}
	if p.Flags&mode.PropAtomic != 0 {
		s += " atomic"
	}
	return s
}

func propValue(card *drm.Card, p *mode.Property, value uint64, enums []mode.PropertyEnum) string {
	switch {
	case p.Flags&mode.PropEnum != 0:
		for i := range enums {
			if enums[i].Value == value {
				return enums[i].String()
			}
		}
	case p.Flags&mode.PropBlob != 0:
		if value == 0 {
			return "(none)"
		}
		blob, err := mode.GetPropertyBlob(card, mode.Handle(value), nil)
		if err != nil {
			return fmt.Sprintf("blob %d (%v)", value, err)
		}
		return fmt.Sprintf("blob %d, %d bytes", value, blob.Length)
	case p.Type() == mode.PropSignedRange:
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatUint(value, 10)
}
