package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bher20/dormbill/internal/api"
	"github.com/bher20/dormbill/internal/auth"
	"github.com/bher20/dormbill/internal/bills"
	"github.com/bher20/dormbill/internal/migrate"
	"github.com/bher20/dormbill/internal/reports"
	"github.com/bher20/dormbill/internal/storage"
)

// openServices opens storage and builds the bills service, running goose
// migrations first when auto-migrate is enabled.
func (a *app) openServices(ctx context.Context) (storage.Storage, *bills.Service, error) {
	if a.cfg.AutoMigrate && a.cfg.DBDriver != "memory" {
		if err := migrate.Up(ctx, a.cfg.DBDriver, a.cfg.DBDSN); err != nil {
			a.log.Error("auto-migration failed", zap.Error(err))
		}
	}

	st, err := storage.Open(ctx, storage.Config{Driver: a.cfg.DBDriver, DSN: a.cfg.DBDSN}, a.log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := bills.New(st, a.cfg.Tariff, a.cfg.DueSchedule, a.log.Named("bills"))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, svc, nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, svc, err := a.openServices(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			deps := api.Deps{
				Store:   st,
				Bills:   svc,
				Reports: reports.New(st, a.log.Named("reports")),
				Log:     a.log.Named("api"),
			}
			if a.cfg.JWTSecret != "" {
				deps.Auth, err = auth.NewService(a.cfg.JWTSecret)
				if err != nil {
					return err
				}
			} else {
				a.log.Warn("DORMBILL_JWT_SECRET not set; API authorization disabled")
			}

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           api.NewMux(deps),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("dormbill listening", zap.String("addr", srv.Addr), zap.String("driver", a.cfg.DBDriver))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
