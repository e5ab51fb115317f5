package cli

import (
	"strings"

	"github.com/spf13/cobra"

	lcnet "LiveCanvas/internal/net"
)

// NewRootCmd builds the livecanvas command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "livecanvas",
		Short:         "Real-time collaborative canvas for the local network",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("config", "", "config file (default ~/.livecanvas/config.yaml)")

	root.AddCommand(newHostCmd())
	root.AddCommand(newJoinCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// RewriteArgs turns a bare share link argument, as passed by the OS URL
// handler, into a join command.
func RewriteArgs(args []string) []string {
	if len(args) < 2 || !strings.HasPrefix(args[1], lcnet.LinkScheme+"://") {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], "join")
	return append(out, args[1:]...)
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
