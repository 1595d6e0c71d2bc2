package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/ellie/internal/commands"
	"github.com/petasbytes/ellie/internal/healthcheck"
	"github.com/petasbytes/ellie/internal/platform"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Chat with Ellie on the console and serve the health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Graceful shutdown on Ctrl-C (SIGINT) / SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v, cmd)
		},
	}
	cmd.Flags().String("health-listen", "", "Health listen address; \"off\" disables the server.")
	_ = v.BindPFlag("health.listen", cmd.Flags().Lookup("health-listen"))
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, cmd *cobra.Command) error {
	rt, err := loadRuntime(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	out := cmd.OutOrStdout()
	console := platform.NewConsole(platform.ConsoleOptions{
		In:       cmd.InOrStdin(),
		Out:      out,
		SelfID:   rt.cfg.SelfID,
		SelfName: rt.persona.Name,
	})
	a := rt.newAgent(console)
	dispatcher := commands.NewDispatcher(commands.DefaultPrefix, commands.Registry(a))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// End of input ends the session, which also stops the health server.
		defer cancel()
		fmt.Fprintf(out, "Chat with %s in #%s. Say %q, reply with ^<id> <text>, Ctrl-C to quit.\n",
			rt.persona.Name, console.ChannelID(), a.WakePhrase())
		fmt.Fprintf(out, "Commands: %s\n", commandList(commands.DefaultPrefix, dispatcher.Names()))
		return console.Run(gctx, a, dispatcher)
	})

	if listen := rt.cfg.HealthListen; listen != "" && listen != "off" {
		g.Go(func() error {
			return healthcheck.Serve(gctx, rt.logger.Named("health"), listen, a.Counters().Snapshot)
		})
	}

	err = g.Wait()
	rt.logger.Info("shutting down", zap.Any("turns", a.Counters().Snapshot()))
	return err
}

func commandList(prefix string, names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return strings.Join(out, ", ")
}
