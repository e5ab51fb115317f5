package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"LiveCanvas/internal/appconfig"
	lcnet "LiveCanvas/internal/net"
	"LiveCanvas/internal/room"
	"LiveCanvas/internal/roomstore"
)

func newServeCmd() *cobra.Command {
	var addr string
	var advertise bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless room relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			cfg, err := appconfig.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			if advertise && cfg.Discovery.Enabled {
				stop, err := advertiseRelay(cfg, ln, cfg.Client.Room)
				if err != nil {
					logger.Warn("mdns advertisement failed", "err", err)
				} else {
					defer stop()
				}
			}
			logger.Info("relay listening", "addr", ln.Addr().String(), "store", cfg.Store.Path)
			return runRelay(ctx, cfg, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "advertise the default room over mDNS")
	return cmd
}

// runRelay serves rooms on ln until ctx is done, backing rooms up to the
// configured store.
func runRelay(ctx context.Context, cfg appconfig.Config, ln net.Listener) error {
	logger := pslog.Ctx(ctx)
	var snapshots room.Snapshots
	if cfg.Store.Path != "" {
		store, err := roomstore.Open(cfg.Store.Path)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close room store", "err", err)
			}
		}()
		snapshots = store
	}
	rooms := room.NewManager(logger, snapshots)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	backups := make(chan struct{})
	go func() {
		defer close(backups)
		rooms.RunBackups(ctx, time.Duration(cfg.Server.BackupIntervalSeconds)*time.Second)
	}()

	err := lcnet.Serve(ctx, ln, lcnet.NewServer(rooms, logger).Handler())
	cancel()
	<-backups
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func advertiseRelay(cfg appconfig.Config, ln net.Listener, roomID string) (func(), error) {
	tcp, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("cannot advertise %s", ln.Addr())
	}
	server, err := lcnet.Advertise(cfg.Discovery.Service, tcp.Port, roomID)
	if err != nil {
		return nil, err
	}
	return func() { _ = server.Shutdown() }, nil
}
