// Command modbus-server runs a standalone MODBUS/TCP server backed by an
// in-memory Store, for interactive testing against the client package or
// third-party MODBUS tooling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/logging"
	"github.com/prairieworks/gomodbus/server"
)

// fileConfig is both the flag defaults and the shape of an optional YAML
// config file passed via -config; a config file overrides flag values.
type fileConfig struct {
	Address     string `yaml:"address"`
	Port        int    `yaml:"port"`
	MaxSessions int    `yaml:"max_sessions"`
	LogLevel    string `yaml:"log_level"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "modbus-server:", err)
		os.Exit(1)
	}
}

func run() error {
	address := flag.String("address", "0.0.0.0", "address to bind")
	port := flag.Int("port", common.DefaultTCPPort, "TCP port to listen on")
	maxSessions := flag.Int("max-sessions", server.DefaultMaxSessions, "maximum concurrent client sessions")
	logLevel := flag.String("log-level", "info", "trace|debug|info|warn|error")
	configPath := flag.String("config", "", "optional YAML config file overriding the flag defaults")
	flag.Parse()

	cfg := fileConfig{Address: *address, Port: *port, MaxSessions: *maxSessions, LogLevel: *logLevel}
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	logger := logging.NewLogger(logging.WithLevel(parseLevel(cfg.LogLevel)))
	srv := server.NewTCPServer(cfg.Address,
		server.WithServerPort(cfg.Port),
		server.WithServerLogger(logger),
		server.WithMaxSessions(cfg.MaxSessions),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-groupCtx.Done()
		return srv.Stop(context.Background())
	})
	return group.Wait()
}

func parseLevel(s string) common.LogLevel {
	switch s {
	case "trace":
		return common.LevelTrace
	case "debug":
		return common.LevelDebug
	case "warn":
		return common.LevelWarn
	case "error":
		return common.LevelError
	default:
		return common.LevelInfo
	}
}
