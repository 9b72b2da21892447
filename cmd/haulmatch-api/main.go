// README: Entry point; loads config, wires services, starts the HTTP server and the matching sweep.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"haulmatch/internal/config"
	httptransport "haulmatch/internal/http"
	"haulmatch/internal/infra"
	"haulmatch/internal/logger"
	"haulmatch/internal/maps"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/consolidation"
	"haulmatch/internal/modules/geo"
	"haulmatch/internal/modules/matching"
	"haulmatch/internal/modules/notify"
	"haulmatch/internal/modules/pricing"
	"haulmatch/internal/modules/transporter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("postgres init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var planner geo.RoutePlanner
	if cfg.Maps.APIKey != "" {
		routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", zap.Error(err))
		}
		planner = routeService
	} else {
		log.Warn("no maps api key configured, trip estimates use the geometric fallback")
	}
	estimator := geo.NewEstimator(planner, cfg.Geo)

	var notifier notify.Notifier
	if cfg.Firebase.ProjectID != "" {
		msgClient, err := infra.NewMessagingClient(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatal("firebase init", zap.Error(err))
		}
		notifier = notify.NewFCMNotifier(msgClient)
	} else {
		log.Warn("no firebase project configured, match notifications disabled")
	}

	pricingSvc := pricing.NewService(pricing.NewSQLStore(dbPool))
	bookingSvc := booking.NewService(booking.NewSQLStore(dbPool), estimator, pricingSvc, cfg.Booking)

	poolSvc := transporter.NewService(
		transporter.NewSQLDirectoryStore(dbPool),
		transporter.NewSQLSubscriptionStore(dbPool),
		transporter.NewPositionStore(redisClient),
		cfg.Matching,
	)

	matchingSvc := matching.NewService(bookingSvc, poolSvc, notifier, notify.NewSQLEndpointStore(dbPool), cfg.Matching)
	consolidationSvc := consolidation.NewService(bookingSvc, matchingSvc, cfg.Consolidation)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Booking:       bookingSvc,
		Matching:      matchingSvc,
		Consolidation: consolidationSvc,
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Routes()}

	go matchingSvc.RunSweep(ctx)

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server", zap.Error(err))
	}
}
