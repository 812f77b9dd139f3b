// cmd/server/main.go

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/brucePedroGomes/rocketShoes/cart"
	"github.com/brucePedroGomes/rocketShoes/cartstore"
	"github.com/brucePedroGomes/rocketShoes/catalog"
	"github.com/brucePedroGomes/rocketShoes/config"
	"github.com/brucePedroGomes/rocketShoes/logging"
	"github.com/brucePedroGomes/rocketShoes/notify"
	"github.com/brucePedroGomes/rocketShoes/services"
	"github.com/brucePedroGomes/rocketShoes/telemetry"
)

const (
	serviceName = "cartservice"

	// notifications kept for GET /notifications
	recentNotifications = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel)
	log := logger.WithField("service", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("cartservice stopped with error")
	}
	log.Info("cartservice stopped")
}

func run(ctx context.Context, cfg config.Config, log *logrus.Entry) error {
	// ----------------------------------------------------------------
	// 1) OpenTelemetry providers
	if cfg.OTelEnabled {
		log.Info("Initializing OpenTelemetry providers...")
		tp, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(log, "tracer provider", tp.Shutdown)

		mp, err := telemetry.InitMeterProvider(ctx, serviceName, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(log, "meter provider", mp.Shutdown)
		log.Info("OpenTelemetry providers initialized successfully")
	} else {
		log.Info("Telemetry disabled")
	}
	// ----------------------------------------------------------------

	// ----------------------------------------------------------------
	// 2) Cart storage
	log.WithField("backend", cfg.Storage).Info("Opening cart storage...")
	store, err := cartstore.Open(ctx, cartstore.Options{
		Backend:   cfg.Storage,
		RedisAddr: cfg.RedisAddr,
		MySQLDSN:  cfg.MySQLDSN,
		Log:       log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close cart storage")
		}
	}()
	log.Info("Cart storage ready")
	// ----------------------------------------------------------------

	// ----------------------------------------------------------------
	// 3) Collaborators: catalog client and notification sinks
	client := catalog.NewClient(cfg.CatalogAddr, cfg.CatalogTimeout, log)
	log.WithField("addr", cfg.CatalogAddr).Info("Using catalog service")

	recorder := notify.NewRecorder(recentNotifications)
	sinks := []notify.Sink{notify.NewLogSink(log), recorder}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.NotifyTopic, log)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				log.WithError(err).Warn("failed to close kafka sink")
			}
		}()
		sinks = append(sinks, kafkaSink)
		log.WithField("topic", cfg.NotifyTopic).Info("Publishing notifications to Kafka")
	}
	// ----------------------------------------------------------------

	// ----------------------------------------------------------------
	// 4) Cart store
	cartStore, err := cart.New(ctx, cart.Dependencies{
		Stock:    client,
		Catalog:  client,
		Storage:  store,
		Notifier: notify.Multi(sinks...),
	},
		cart.WithKey(cfg.CartKey),
		cart.WithLogger(log),
		cart.WithTracerProvider(otel.GetTracerProvider()),
		cart.WithMeterProvider(otel.GetMeterProvider()),
	)
	if err != nil {
		return err
	}
	cartStore.Subscribe(func(c cart.Cart) {
		log.WithFields(logrus.Fields{"lines": c.Len(), "items": c.ItemCount()}).Info("cart changed")
	})
	// ----------------------------------------------------------------

	// ----------------------------------------------------------------
	// 5) HTTP and gRPC servers
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           services.NewCartHandler(cartStore, store, recorder, log).Router(serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthpb.RegisterHealthServer(grpcServer, services.NewHealthCheckService(store, log))
	log.Info("Registered HealthCheckService")

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("HTTP server is listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("gRPC server is listening on %s", lis.Addr())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Received shutdown signal, initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})
	// ----------------------------------------------------------------

	return g.Wait()
}

func shutdown(log *logrus.Entry, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.WithError(err).Warnf("Error shutting down %s", name)
	}
}
