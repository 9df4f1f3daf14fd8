// cmd/mapperd/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/okrause/modbus-mapper/internal/config"
	"github.com/okrause/modbus-mapper/internal/engine"
	"github.com/okrause/modbus-mapper/internal/link"
	"github.com/okrause/modbus-mapper/internal/mapping"
	"github.com/okrause/modbus-mapper/internal/metrics"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: mapperd <config.yaml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	m := cfg.Mapper

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	logger.Info("available mappings",
		zap.String("dir", m.MappingDir),
		zap.Strings("files", mapping.ListFiles(m.MappingDir)))

	// --------------------
	// Link driver
	// --------------------

	drv, err := link.New(link.Config{
		Transport: link.Transport(m.Transport),
		TCP:       link.TCPConfig{Host: m.TCP.Host, Port: m.TCP.Port},
		RTU: link.RTUConfig{
			Device:   m.RTU.Device,
			BaudRate: m.RTU.BaudRate,
			DataBits: m.RTU.DataBits,
			Parity:   m.RTU.Parity,
			StopBits: m.RTU.StopBits,
		},
		SlaveID: byte(m.SlaveID),
		Timeout: time.Duration(m.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("link setup failed: %v", err)
	}

	// --------------------
	// Metrics endpoint (optional)
	// --------------------

	var met *metrics.Metrics
	if m.MetricsListen != "" {
		met = metrics.New(prometheus.DefaultRegisterer)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(m.MetricsListen, nil); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	// --------------------
	// Coordinator
	// --------------------

	coord, err := engine.New(engine.Config{
		MappingPath: filepath.Join(m.MappingDir, m.MappingFile),
		Interval:    time.Duration(m.PollIntervalS) * time.Second,
	}, drv, logger, met)
	if err != nil {
		log.Fatalf("coordinator setup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go coord.Run(ctx)

	<-ctx.Done()
	coord.Close()
	logger.Info("shutdown complete")
}
