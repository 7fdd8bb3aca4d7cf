package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrshiposha/drm/internal/config"
	"github.com/mrshiposha/drm/mode"
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors",
	Short: "List connectors and their modes",
	Long: `List every connector of the card with its state and modes.

Without --force-probe only the state the kernel has cached is shown.
Probing re-detects the outputs and may take a long time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		var ids []mode.Handle
		if _, err := mode.GetResources(card, nil, nil, &ids, nil); err != nil {
			return fmt.Errorf("failed to get resources: %w", err)
		}

		force := config.Get().Device.ForceProbe
		w := cmd.OutOrStdout()

		var (
			props    mode.PropertyList
			modes    []mode.Info
			encoders []mode.Handle
		)
		for _, id := range ids {
			conn, err := mode.GetConnector(card, id, &props, &modes, &encoders, force)
			if err != nil {
				return fmt.Errorf("failed to get connector %s: %w", id, err)
			}

			printHeader(w, fmt.Sprintf("%s (%s) %s", conn.Name(), conn.ID, connectionName(conn.Connection)))
			printTotal(w, "size %dx%d mm, encoder %s, possible encoders [%s], %d properties",
				conn.Width, conn.Height, conn.EncoderID, joinHandles(encoders), len(props.IDs))

			if len(modes) == 0 {
				continue
			}
			t := newTable("MODE", "CLOCK", "HSYNC", "VSYNC", "REFRESH", "FLAGS")
			for _, m := range modes {
				t.Row(m.String(),
					fmt.Sprint(m.Clock),
					fmt.Sprintf("%d %d %d %d", m.Hdisplay, m.HsyncStart, m.HsyncEnd, m.Htotal),
					fmt.Sprintf("%d %d %d %d", m.Vdisplay, m.VsyncStart, m.VsyncEnd, m.Vtotal),
					fmt.Sprint(m.Vrefresh),
					fmt.Sprintf("%#x", m.Flags))
			}
			printTable(w, t)
		}
		return nil
	},
}

func init() {
	connectorsCmd.Flags().Bool("force-probe", false, "re-detect connectors")
	viper.BindPFlag("device.force_probe", connectorsCmd.Flags().Lookup("force-probe"))
}
