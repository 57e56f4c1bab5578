package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"seedbot/config"
	"seedbot/database"
	"seedbot/router"

	"seedbot/pkg/actuator"
	"seedbot/pkg/coapserver"
	"seedbot/pkg/observability"
	"seedbot/pkg/publisher"
	"seedbot/pkg/seed"

	// Cell
	cellCtrlImp "seedbot/pkg/cell/controllerImp"
	cellRepoImp "seedbot/pkg/cell/repositoryImp"

	// Device
	deviceCtrlImp "seedbot/pkg/device/controllerImp"
	deviceRepoImp "seedbot/pkg/device/repositoryImp"

	// Field
	fieldCtrlImp "seedbot/pkg/field/controllerImp"
	fieldRepoImp "seedbot/pkg/field/repositoryImp"
	fieldSvcImp "seedbot/pkg/field/serviceImp"

	// Sowing
	sowingCtrlImp "seedbot/pkg/sowing/controllerImp"
	sowingSvcImp "seedbot/pkg/sowing/serviceImp"

	// Telemetry
	telemetryCtrlImp "seedbot/pkg/telemetry/controllerImp"
	telemetrySvc "seedbot/pkg/telemetry/service"
	telemetrySvcImp "seedbot/pkg/telemetry/serviceImp"

	// Health
	healthCtrlImp "seedbot/pkg/health/controllerImp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:          "seedbot",
		Short:        "Field sowing orchestration server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the control API and the device-facing CoAP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return serve(ctx, cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				log := observability.InitLogger("seedbot", cfg.LogLevel)
				db, err := database.OpenSQLite(cfg.DBPath, log)
				if err != nil {
					return err
				}
				if sqlDB, err := db.DB(); err == nil {
					defer sqlDB.Close()
				}
				log.Info().Str("db", cfg.DBPath).Msg("schema up to date")
				return nil
			},
		},
	)
	return cmd
}

func serve(ctx context.Context, cfg config.AppConfig) error {
	// 1) Logger + metrics
	log := observability.InitLogger("seedbot", cfg.LogLevel)
	observability.RegisterMetrics()

	// 2) DB (sqlite) + automigrate
	db, err := database.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	partition, err := telemetrySvc.ParsePartition(cfg.SavePartition)
	if err != nil {
		return err
	}
	seeds, err := seed.Load(cfg.SeedCatalog)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	// 3) Push channel: websocket always, MQTT and Kafka when configured
	hub := publisher.NewHub(observability.Component(log, "ws"))
	defer hub.Close()
	fanout := publisher.NewFanout(observability.Component(log, "publisher"), hub)
	checks := map[string]healthCtrlImp.Check{}
	if cfg.MQTTBroker != "" {
		m, err := publisher.NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("mqtt publisher disabled")
		} else {
			defer m.Close()
			fanout.Add(m)
			checks["mqtt"] = func(context.Context) error {
				if !m.Connected() {
					return errors.New("not connected")
				}
				return nil
			}
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		k := publisher.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer k.Close()
		fanout.Add(k)
		checks["kafka"] = k.Ping
	}

	// 4) Repos
	devices := deviceRepoImp.New(db)
	fields := fieldRepoImp.New(db)
	cells := cellRepoImp.New(db)

	// 5) Services
	transport := actuator.CoAPTransport{}
	client := actuator.NewClient(transport, cfg.ActuatorPort, cfg.ActuatorTimeout, observability.Component(log, "actuator"))
	sowing := sowingSvcImp.NewSowingService(devices, fields, client,
		sowingSvcImp.ActuatorObservers(transport, fanout, observability.Component(log, "observer")),
		sowingSvcImp.Config{ActuatorName: cfg.ActuatorName},
		observability.Component(log, "sowing"))
	telemetry := telemetrySvcImp.NewTelemetryService(devices, cells, fanout, partition, observability.Component(log, "telemetry"))

	// 6) CoAP server
	coap, err := coapserver.New(cfg.CoAPAddr, telemetryCtrlImp.New(telemetry, observability.Component(log, "coap")), observability.Component(log, "coap"))
	if err != nil {
		return err
	}

	// 7) Echo + router
	e := router.New(echo.New(), router.Handlers{
		Sowing:  sowingCtrlImp.New(sowing),
		Fields:  fieldCtrlImp.New(fieldSvcImp.NewFieldService(fields)),
		Cells:   cellCtrlImp.New(cells, fields, seeds),
		Devices: deviceCtrlImp.New(devices),
		Health:  healthCtrlImp.NewHealthCtrl(db, sowing, checks),
		Push:    hub,
	}, router.Options{
		Log:         observability.Component(log, "http"),
		APIToken:    cfg.APIToken,
		CORSOrigins: cfg.CORSOrigins,
	})

	// 8) Start
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	coapErr := make(chan error, 1)
	httpErr := make(chan error, 1)
	go func() { coapErr <- coap.ListenAndServe(ctx) }()
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Str("coap", cfg.CoAPAddr).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
			return
		}
		httpErr <- nil
	}()

	select {
	case <-ctx.Done():
	case err = <-coapErr:
		coapErr <- err
	case err = <-httpErr:
		httpErr <- err
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown")
	}
	err = errors.Join(<-coapErr, <-httpErr)
	log.Info().Msg("shutdown complete")
	return err
}
