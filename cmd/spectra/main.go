package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spectraproject/spectra/internal/common"
	"github.com/spectraproject/spectra/internal/common/health"
	"github.com/spectraproject/spectra/internal/spectra"
	"github.com/spectraproject/spectra/internal/spectra/configuration"
)

const CustomConfigLocation string = "config"

func init() {
	pflag.String(CustomConfigLocation, "", "Fully qualified path to application configuration file")
	pflag.Parse()
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()

	var config configuration.SpectraConfig
	userSpecifiedConfig := viper.GetString(CustomConfigLocation)
	common.LoadConfig(&config, "./config/spectra", userSpecifiedConfig)

	log.Info("Starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stopSignal
		log.Infof("Received %s, shutting down", sig)
		cancel()
	}()

	healthChecks := health.NewMultiChecker()
	shutdownMetricServer := common.ServeMetrics(config.MetricsPort, map[string]http.Handler{
		"/health": health.NewHealthCheckHttpHandler(healthChecks),
	})
	defer shutdownMetricServer()

	if err := spectra.Serve(ctx, &config, healthChecks); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("scheduler exited with error")
		os.Exit(1)
	}
}
