package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"revintel/internal/handler"
	"revintel/internal/infra/db"
	infraRepo "revintel/internal/infra/repository"
	"revintel/internal/server"
	"revintel/internal/usecase"
	auth "revintel/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := withSignals(cmd.Context())
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipMigrate {
				if err := db.Migrate(a.db); err != nil {
					return err
				}
			}

			//bcrypt（ログイン：Verify）とJWT issuer
			userRepo := infraRepo.NewUserGormRepository(a.db)
			issuer := auth.NewJWTIssuer(a.cfg.JWTSecret, a.cfg.AccessTokenTTL)
			loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), issuer, usecase.SystemClock{})

			//Handler生成
			e := server.New(server.Options{
				JWTSecret: a.cfg.JWTSecret,
				FEURL:     a.cfg.FEURL,
				Logger:    a.log,
			}, server.Handlers{
				Auth:          handler.NewAuthHandler(loginUC),
				Analytics:     handler.NewAnalyticsHandler(a.analytics),
				Report:        handler.NewReportHandler(a.analytics),
				AdminCustomer: handler.NewAdminCustomerHandler(a.customers),
				AdminProduct:  handler.NewAdminProductHandler(a.products),
				AdminSale:     handler.NewAdminSaleHandler(a.sales),
				AdminAudit:    handler.NewAdminAuditHandler(a.audit),
			})

			a.log.InfoContext(ctx, "server starting", slog.String("addr", a.cfg.Addr()), slog.String("db", a.cfg.DBDriver))
			return server.Start(ctx, e, a.cfg.Addr())
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on start")
	return cmd
}

func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
