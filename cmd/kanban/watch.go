package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/dittokanban/internal/remote"
	"github.com/and161185/dittokanban/internal/server/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes to your boards as they happen",
		Args:  cobra.NoArgs,
		RunE: runner(g, func(ctx context.Context, a *app, _ []string) error {
			if _, err := a.signedIn(ctx); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Debug("watching", zap.String("server", g.server))
			return remote.Watch(ctx, g.server, a.auth, func(m events.Message) {
				fmt.Fprintf(a.out, "%s %s %s\n", m.Type, m.Data.BoardID, m.Data.EntityID)
			})
		}),
	}
}
