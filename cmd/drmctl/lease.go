package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrshiposha/drm/internal/config"
	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/lease"
	"github.com/mrshiposha/drm/mode"
)

var leaseCmd = &cobra.Command{
	Use:   "lease",
	Short: "Create, list and revoke DRM leases",
}

var leaseCreateCmd = &cobra.Command{
	Use:   "create <object>...",
	Short: "Lease CRTCs, connectors and planes until interrupted",
	Long: `Lease the given objects and hold the lease until SIGINT or SIGTERM.
The lessee file descriptor is printed so it can be inspected while the
lease is held. Exiting revokes the lease.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objs := make([]mode.Handle, len(args))
		for i, a := range args {
			h, err := parseHandle(a)
			if err != nil {
				return err
			}
			objs[i] = h
		}
		flags, err := lease.ParseFlags(config.Get().Lease.Flags)
		if err != nil {
			return err
		}

		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		l := lease.New(card, objs...)
		if err := l.Create(flags); err != nil {
			return fmt.Errorf("failed to create lease: %w", err)
		}
		defer func() {
			if err := l.Close(); err != nil {
				logger.Error("failed to release lease", "lessee", l.ID(), "err", err)
			}
		}()

		w := cmd.OutOrStdout()
		printHeader(w, fmt.Sprintf("lessee %s", l.ID()))
		printTotal(w, "pid %d, fd %d, objects [%s]", os.Getpid(), l.Card().Fd(), joinHandles(objs))
		logger.Info("holding lease, interrupt to revoke", "lessee", l.ID())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Info("revoking lease", "lessee", l.ID())
		return nil
	},
}

var leaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lessees of the card",
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		var lessees []lease.LesseeID
		if _, err := lease.ListLessees(card, &lessees); err != nil {
			return fmt.Errorf("failed to list lessees: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(lessees) == 0 {
			printTotal(w, "No lessees")
			return nil
		}
		t := newTable("LESSEE")
		for _, id := range lessees {
			t.Row(id.String())
		}
		printTable(w, t)
		printTotal(w, "Total: %d lessee(s)", len(lessees))
		return nil
	},
}

var leaseRevokeCmd = &cobra.Command{
	Use:   "revoke <lessee>",
	Short: "Revoke a lease by lessee id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid lessee id %q: %w", args[0], err)
		}
		id, ok := lease.LesseeIDFrom(uint32(u))
		if !ok {
			return fmt.Errorf("lessee id must not be zero")
		}

		card, err := openCard()
		if err != nil {
			return err
		}
		defer card.Close()

		if err := lease.RevokeLease(card, id); err != nil {
			return fmt.Errorf("failed to revoke lessee %s: %w", id, err)
		}
		logger.Info("revoked", "lessee", id)
		return nil
	},
}

func init() {
	leaseCmd.AddCommand(leaseCreateCmd)
	leaseCmd.AddCommand(leaseListCmd)
	leaseCmd.AddCommand(leaseRevokeCmd)
}
