package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"LiveCanvas/internal/appconfig"
	"LiveCanvas/internal/collab"
	lcnet "LiveCanvas/internal/net"
	"LiveCanvas/internal/ui"
)

const browseTimeout = 3 * time.Second

func newHostCmd() *cobra.Command {
	var roomID string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a board on this machine and open it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			logger := pslog.Ctx(ctx)
			cfg, err := appconfig.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if roomID == "" {
				roomID = cfg.Client.Room
			}
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			share := lcnet.Target{Addr: lcnet.ShareAddr(ln), Room: roomID}
			if cfg.Discovery.Enabled {
				stop, err := advertiseRelay(cfg, ln, roomID)
				if err != nil {
					logger.Warn("mdns advertisement failed", "err", err)
				} else {
					defer stop()
				}
			}

			relayDone := make(chan error, 1)
			go func() { relayDone <- runRelay(ctx, cfg, ln) }()

			local := lcnet.Target{Addr: localAddr(ln), Room: roomID}
			logger.Info("hosting board", "link", share.Link())
			fmt.Fprintln(cmd.OutOrStdout(), "Share this link:", share.Link())
			err = openBoard(ctx, cfg, local, share.Link())
			cancel()
			if relayErr := <-relayDone; relayErr != nil && err == nil {
				err = relayErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&roomID, "room", "", "room name (overrides client.room)")
	return cmd
}

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join [link]",
		Short: "Open a board hosted elsewhere",
		Long:  "Open a board from a livecanvas:// link. Without a link the local network is searched and the first board found is opened.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := appconfig.Load(configPath(cmd))
			if err != nil {
				return err
			}
			target, err := resolveTarget(ctx, cfg, args)
			if err != nil {
				return err
			}
			pslog.Ctx(ctx).Info("joining board", "link", target.Link())
			return openBoard(ctx, cfg, target, target.Link())
		},
	}
	return cmd
}

// resolveTarget picks the board to join: an explicit link, a board found
// over mDNS, or the configured server.
func resolveTarget(ctx context.Context, cfg appconfig.Config, args []string) (lcnet.Target, error) {
	if len(args) == 1 {
		return lcnet.ParseLink(args[0])
	}
	if cfg.Discovery.Enabled {
		hosts, err := lcnet.Browse(ctx, cfg.Discovery.Service, browseTimeout)
		if err != nil {
			pslog.Ctx(ctx).Warn("mdns browse failed", "err", err)
		}
		if len(hosts) > 0 {
			return hosts[0].Target, nil
		}
	}
	target, err := lcnet.ParseLink(cfg.Client.ServerURL)
	if err != nil {
		return lcnet.Target{}, fmt.Errorf("no board found and client.server_url unusable: %w", err)
	}
	target.Room = cfg.Client.Room
	return target, nil
}

func openBoard(ctx context.Context, cfg appconfig.Config, target lcnet.Target, shareLink string) error {
	logger := pslog.Ctx(ctx)
	client := lcnet.NewClient(target, time.Duration(cfg.Client.ReconnectSeconds)*time.Second, logger)
	return ui.Run(ctx, ui.Options{
		Title:     "LiveCanvas · " + target.Room,
		ShareLink: shareLink,
		Logger:    logger,
		Session:   sessionOptions(cfg, client),
		Connect: func(ctx context.Context, s *collab.Session) error {
			return client.Run(ctx, s)
		},
	})
}

func sessionOptions(cfg appconfig.Config, link collab.Link) collab.Options {
	return collab.Options{
		Link:             link,
		ReactionInterval: time.Duration(cfg.Session.ReactionIntervalMS) * time.Millisecond,
		PruneInterval:    time.Duration(cfg.Session.PruneIntervalMS) * time.Millisecond,
		ReactionTTL:      time.Duration(cfg.Session.ReactionTTLMS) * time.Millisecond,
	}
}

// localAddr is the loopback address for a listener bound to any interface.
func localAddr(ln net.Listener) string {
	tcp, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return ln.Addr().String()
	}
	host := "127.0.0.1"
	if ip := tcp.IP; ip != nil && !ip.IsUnspecified() {
		host = ip.String()
	}
	return net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}
