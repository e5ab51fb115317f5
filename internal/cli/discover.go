package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"LiveCanvas/internal/appconfig"
	lcnet "LiveCanvas/internal/net"
)

func newDiscoverCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List boards advertised on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(configPath(cmd))
			if err != nil {
				return err
			}
			hosts, err := lcnet.Browse(cmd.Context(), cfg.Discovery.Service, timeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hosts) == 0 {
				fmt.Fprintln(out, "no boards found")
				return nil
			}
			for _, h := range hosts {
				fmt.Fprintf(out, "%s\t%s\n", h.Target.Link(), h.Name)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", browseTimeout, "how long to listen for boards")
	return cmd
}
