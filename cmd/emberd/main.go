// Command emberd serves static files over HTTP/1.1, tuned for high
// single-host request throughput (spec §1, §2).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/emberd/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := server.DefaultConfig()
	var (
		port        int
		workers     int
		logLevel    string
		maxEvents   int
		idleTimeout time.Duration
		sendfile    bool
	)

	cmd := &cobra.Command{
		Use:   "emberd [port] [workers] [docroot]",
		Short: "A static-content HTTP/1.1 server tuned for high request throughput",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) >= 1 {
				p, err := parsePort(args[0])
				if err != nil {
					return err
				}
				port = p
			}
			if len(args) >= 2 {
				w, err := parseWorkers(args[1])
				if err != nil {
					return err
				}
				workers = w
			}
			if len(args) >= 3 {
				cfg.DocRoot = args[2]
			}

			cfg.Addr = fmt.Sprintf(":%d", port)
			cfg.Workers = workers
			cfg.MaxEventsPerWake = maxEvents
			cfg.IdleTimeout = idleTimeout
			cfg.UseSendfile = sendfile

			log := newLogger(logLevel)
			return run(cfg, log)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "number of per-core workers")
	cmd.Flags().StringVar(&cfg.DocRoot, "docroot", "./www", "document root to serve")
	cmd.Flags().IntVar(&maxEvents, "max-events", 4096, "readiness events per wake (CLI-surface only, no effect)")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 60*time.Second, "connection idle timeout before eviction")
	cmd.Flags().BoolVar(&sendfile, "sendfile", true, "use kernel sendfile(2) for uncached file responses")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func parsePort(s string) (int, error) {
	var p int
	if _, err := fmt.Sscanf(s, "%d", &p); err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return p, nil
}

func parseWorkers(s string) (int, error) {
	var w int
	if _, err := fmt.Sscanf(s, "%d", &w); err != nil || w <= 0 {
		return 0, fmt.Errorf("invalid worker count %q", s)
	}
	return w, nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// run wires signal handling to a graceful shutdown: SIGPIPE is ignored
// (a closed peer must surface as a write error, not process death) and
// SIGINT/SIGTERM trigger Shutdown (spec §4.4 "On shutdown").
func run(cfg server.Config, log *logrus.Logger) error {
	signal.Ignore(syscall.SIGPIPE)

	srv, err := server.New(cfg, log)
	if err != nil {
		return fmt.Errorf("emberd: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("emberd: %w", err)
	}

	log.WithFields(logrus.Fields{
		"addr":    cfg.Addr,
		"workers": cfg.Workers,
		"docroot": cfg.DocRoot,
	}).Info("emberd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("emberd: shutdown: %w", err)
	}

	log.WithField("requests_served", srv.RequestCount()).Info("emberd stopped")
	return nil
}
