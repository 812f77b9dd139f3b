// cmd/catalogservice/main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/brucePedroGomes/rocketShoes/catalog"
	"github.com/brucePedroGomes/rocketShoes/logging"
)

type settings struct {
	Port     string `envconfig:"PORT" default:"3333"`
	Fixture  string `envconfig:"CATALOG_FIXTURE" default:"db.json"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// catalogservice serves stock levels and product metadata from a JSON
// fixture for local development.
func main() {
	var s settings
	if err := envconfig.Process("", &s); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(s.LogLevel).WithField("service", "catalogservice")

	f, err := catalog.LoadFixture(s.Fixture)
	if err != nil {
		log.WithError(err).Fatal("failed to load fixture")
	}
	log.WithFields(logrus.Fields{
		"products": len(f.Products),
		"stock":    len(f.Stock),
	}).Info("fixture loaded")

	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           catalog.NewHandler(f),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Received shutdown signal, initiating graceful shutdown...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.Infof("catalogservice is listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("failed to serve")
	}
}
