package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bher20/dormbill/internal/cron"
)

func newWorkerCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Mark past-due bills overdue on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, svc, err := a.openServices(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			w := cron.NewWorker(st, svc, a.cfg.OverdueSchedule, a.log.Named("cron"))
			if once {
				_, err := w.RunOnce(ctx)
				return err
			}
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")
	return cmd
}
