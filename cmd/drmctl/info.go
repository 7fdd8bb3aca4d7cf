package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/logger"
)

var capNames = []struct {
	id   uint64
	name string
}{
	{drm.CapDumbBuffer, "dumb buffer"},
	{drm.CapVBlankHighCRTC, "vblank high crtc"},
	{drm.CapDumbPreferredDepth, "dumb preferred depth"},
	{drm.CapDumbPreferShadow, "dumb prefer shadow"},
	{drm.CapPrime, "prime"},
	{drm.CapTimestampMonotonic, "timestamp monotonic"},
	{drm.CapAsyncPageFlip, "async page flip"},
	{drm.CapCursorWidth, "cursor width"},
	{drm.CapCursorHeight, "cursor height"},
	{drm.CapAddFB2Modifiers, "addfb2 modifiers"},
	{drm.CapPageFlipTarget, "page flip target"},
	{drm.CapCrtcInVBlankEvent, "crtc in vblank event"},
	{drm.CapSyncObj, "syncobj"},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show driver version and capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		version, err := drm.GetVersion(card)
		if err != nil {
			return fmt.Errorf("failed to get driver version: %w", err)
		}

		w := cmd.OutOrStdout()
		printHeader(w, fmt.Sprintf("%s %d.%d.%d (%s)",
			version.Name, version.Major, version.Minor, version.Patch, version.Date))
		fmt.Fprintln(w, version.Desc)

		t := newTable("CAPABILITY", "VALUE")
		for _, c := range capNames {
			val, err := drm.GetCap(card, c.id)
			if err != nil {
				logger.Debug("capability not supported", "cap", c.name, "err", err)
				t.Row(c.name, "-")
				continue
			}
			t.Row(c.name, fmt.Sprintf("%d", val))
		}
		printTable(w, t)
		return nil
	},
}
