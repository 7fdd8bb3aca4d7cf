package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/mode"
)

var planesCmd = &cobra.Command{
	Use:   "planes",
	Short: "List planes and the formats they scan out",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		// primary and cursor planes are hidden without it
		if err := drm.SetClientCap(card, drm.ClientCapUniversalPlanes, 1); err != nil {
			logger.Warn("universal planes not supported, listing overlays only", "err", err)
		}

		var ids []mode.Handle
		if _, err := mode.GetPlaneResources(card, &ids); err != nil {
			return fmt.Errorf("failed to get plane resources: %w", err)
		}

		t := newTable("PLANE", "CRTC", "FB", "POSSIBLE CRTCS", "FORMATS")
		var formats []uint32
		for _, id := range ids {
			p, err := mode.GetPlane(card, id, &formats)
			if err != nil {
				return fmt.Errorf("failed to get plane %s: %w", id, err)
			}
			names := make([]string, len(formats))
			for i, f := range formats {
				names[i] = fourcc(f)
			}
			t.Row(p.ID.String(), p.CrtcID.String(), p.FbID.String(),
				fmt.Sprintf("%#b", p.PossibleCrtcs), strings.Join(names, " "))
		}

		w := cmd.OutOrStdout()
		printHeader(w, "PLANES")
		printTable(w, t)
		printTotal(w, "Total: %d plane(s)", len(ids))
		return nil
	},
}
