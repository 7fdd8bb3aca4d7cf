package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrshiposha/drm/mode"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List framebuffers, CRTCs, connectors and encoders",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		var fbs, crtcs, connectors, encoders []mode.Handle
		res, err := mode.GetResources(card, &fbs, &crtcs, &connectors, &encoders)
		if err != nil {
			return fmt.Errorf("failed to get resources: %w", err)
		}

		w := cmd.OutOrStdout()
		printHeader(w, "RESOURCES")
		t := newTable("KIND", "COUNT", "IDS").
			Row("framebuffers", fmt.Sprint(res.CountFbs), joinHandles(fbs)).
			Row("crtcs", fmt.Sprint(res.CountCrtcs), joinHandles(crtcs)).
			Row("connectors", fmt.Sprint(res.CountConnectors), joinHandles(connectors)).
			Row("encoders", fmt.Sprint(res.CountEncoders), joinHandles(encoders))
		printTable(w, t)
		printTotal(w, "framebuffer size: %dx%d to %dx%d",
			res.MinWidth, res.MinHeight, res.MaxWidth, res.MaxHeight)

		enc := newTable("ENCODER", "TYPE", "CRTC", "POSSIBLE CRTCS")
		for _, id := range encoders {
			e, err := mode.GetEncoder(card, id)
			if err != nil {
				return fmt.Errorf("failed to get encoder %s: %w", id, err)
			}
			enc.Row(e.ID.String(), fmt.Sprint(e.Type), e.CrtcID.String(),
				fmt.Sprintf("%#b", e.PossibleCrtcs))
		}
		printTable(w, enc)

		crt := newTable("CRTC", "FB", "POSITION", "MODE", "GAMMA")
		for _, id := range crtcs {
			c, err := mode.GetCrtc(card, id)
			if err != nil {
				return fmt.Errorf("failed to get crtc %s: %w", id, err)
			}
			m := "-"
			if c.ModeValid != 0 {
				m = c.Mode.String()
			}
			crt.Row(c.ID.String(), c.BufferID.String(), fmt.Sprintf("%d,%d", c.X, c.Y),
				m, fmt.Sprint(c.GammaSize))
		}
		printTable(w, crt)
		return nil
	},
}
