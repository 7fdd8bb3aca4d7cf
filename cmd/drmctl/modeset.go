package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/internal/config"
	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/mode"
)

type output struct {
	set   *mode.Modeset
	saved *mode.Crtc

	db   *mode.DumbBuffer
	fb   mode.Handle
	data []byte
}

var modesetCmd = &cobra.Command{
	Use:   "modeset",
	Short: "Show a test pattern on every connected output",
	Long: `Pick a mode and a free CRTC for every connected connector, scan out a
dumb buffer with a test pattern and restore the previous CRTC state
after modeset.hold or on interrupt. Needs DRM master, so no display
server may be running on the card.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		if !drm.HasDumbBuffer(card) {
			return errors.New("drm device does not support dumb buffers")
		}

		mset, err := mode.NewSimpleModeset(card)
		if err != nil {
			return err
		}
		if len(mset.Modesets) == 0 {
			return errors.New("no connected outputs")
		}

		var outputs []*output
		defer func() {
			for _, out := range outputs {
				restore(card, mset, out)
			}
		}()

		for i := range mset.Modesets {
			m := &mset.Modesets[i]
			out, err := createFramebuffer(card, m)
			if err != nil {
				return err
			}
			outputs = append(outputs, out)

			out.saved, err = mode.GetCrtc(card, m.Crtc)
			if err != nil {
				return fmt.Errorf("cannot get CRTC %s for connector %s: %w", m.Crtc, m.Conn, err)
			}
			draw(out, i)
			err = mode.SetCrtc(card, m.Crtc, out.fb, 0, 0, []mode.Handle{m.Conn}, &m.Mode)
			if err != nil {
				return fmt.Errorf("cannot set CRTC for connector %s: %w", m.Conn, err)
			}
			logger.Info("output set", "connector", m.Conn, "crtc", m.Crtc, "mode", m.Mode.String())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, config.Get().Modeset.Hold)
		defer cancel()
		<-ctx.Done()
		return nil
	},
}

func init() {
	modesetCmd.Flags().Duration("hold", config.DefaultConfig.Modeset.Hold, "how long to show the pattern")
	viper.BindPFlag("modeset.hold", modesetCmd.Flags().Lookup("hold"))
}

func createFramebuffer(card *drm.Card, m *mode.Modeset) (*output, error) {
	db, err := mode.CreateDumb(card, uint32(m.Width), uint32(m.Height), 32, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create dumb buffer: %w", err)
	}
	out := &output{set: m, db: db}

	out.fb, err = mode.AddFB(card, db.Width, db.Height, 24, 32, db.Pitch, db.Handle)
	if err != nil {
		mode.DestroyDumb(card, db.Handle)
		return nil, fmt.Errorf("cannot create framebuffer: %w", err)
	}

	out.data, err = mode.MapDumbBuffer(card, db)
	if err != nil {
		mode.RmFB(card, out.fb)
		mode.DestroyDumb(card, db.Handle)
		return nil, fmt.Errorf("failed to mmap framebuffer: %w", err)
	}
	return out, nil
}

// draw fills the buffer with vertical XRGB8888 bars, shifted per output
// so neighbouring screens differ.
func draw(out *output, shift int) {
	bars := [...]uint32{0xffffff, 0xffff00, 0x00ffff, 0x00ff00, 0xff00ff, 0xff0000, 0x0000ff, 0x000000}
	width := int(out.db.Width)
	for y := 0; y < int(out.db.Height); y++ {
		row := out.data[y*int(out.db.Pitch):]
		for x := 0; x < width; x++ {
			c := bars[(x*len(bars)/width+shift)%len(bars)]
			off := x * 4
			row[off+0] = byte(c)
			row[off+1] = byte(c >> 8)
			row[off+2] = byte(c >> 16)
			row[off+3] = 0
		}
	}
}

func restore(card *drm.Card, mset *mode.SimpleModeset, out *output) {
	if out.saved != nil {
		if err := mset.SetCrtc(out.set, out.saved); err != nil {
			logger.Error("failed to restore crtc", "crtc", out.saved.ID, "err", err)
		}
	}
	if err := mode.UnmapDumbBuffer(out.data); err != nil {
		logger.Error("failed to munmap memory", "err", err)
	}
	if err := mode.RmFB(card, out.fb); err != nil {
		logger.Error("failed to remove frame buffer", "fb", out.fb, "err", err)
	}
	if err := mode.DestroyDumb(card, out.db.Handle); err != nil {
		logger.Error("failed to destroy dumb buffer", "handle", out.db.Handle, "err", err)
	}
}
