package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/config"
	"github.com/vbonduro/traincheck/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := web.NewServer(svc, a.logger)
			return server.ListenAndServe(ctx, a.cfg.ListenAddr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default: 127.0.0.1:8080)")
	_ = a.v.BindPFlag(config.KeyListenAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
