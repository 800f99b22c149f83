package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"CampusPortal/internal/bootstrap"
	"CampusPortal/internal/config"
	"CampusPortal/pkg/routes"
)

func main() {
	if _, err := bootstrap.Loadenv(); err != nil {
		fmt.Fprintln(os.Stderr, "reading .env:", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Provide(config.NewConfig),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		routes.AppModule,
		routes.ServerModule,
	)

	app.Run()
}
