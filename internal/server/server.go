// Package server is the top-level orchestrator: it preloads the response
// cache once, then spawns one worker per configured slot, each bound to
// its own SO_REUSEPORT listener on the same address so the kernel load
// balances accepted connections across them (spec §2, §5).
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/internal/cache"
	"github.com/yourusername/emberd/internal/socket"
	"github.com/yourusername/emberd/internal/worker"
)

// Config holds the server-wide settings spec §6 names as CLI-surfaced
// knobs: listen address, worker count, document root, and the per-worker
// tunables every worker receives a copy of.
type Config struct {
	Addr        string
	Workers     int
	DocRoot     string
	IdleTimeout time.Duration
	UseSendfile bool

	// MaxEventsPerWake is surfaced on the CLI per spec §6 but has no
	// effect under the goroutine-per-connection model (SPEC_FULL.md §0);
	// see worker.Config.MaxEventsPerWake for the same note.
	MaxEventsPerWake int
}

// DefaultConfig follows the original reactor server's server_config.h
// defaults (SPEC_FULL.md SUPPLEMENTED FEATURES): port 8080 and document
// root "./www". Workers is 1 here; the CLI replaces it with the hardware
// concurrency (runtime.GOMAXPROCS(0)) unless told otherwise.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8080",
		Workers:          1,
		DocRoot:          "./www",
		IdleTimeout:      60 * time.Second,
		UseSendfile:      true,
		MaxEventsPerWake: 4096,
	}
}

// Server owns the preloaded cache and the pool of running workers.
type Server struct {
	cfg   Config
	cache *cache.Cache
	log   *logrus.Logger

	workers []*worker.Worker
	wg      sync.WaitGroup
}

// New preloads the response cache from cfg.DocRoot (spec §5: "The preload
// walk runs on the main thread before workers start") and returns a Server
// ready to Start.
func New(cfg Config, log *logrus.Logger) (*Server, error) {
	c, err := cache.Build(cfg.DocRoot)
	if err != nil {
		return nil, fmt.Errorf("server: preloading cache from %q: %w", cfg.DocRoot, err)
	}
	log.WithFields(logrus.Fields{
		"docroot": cfg.DocRoot,
		"entries": c.Len(),
	}).Info("response cache preloaded")

	return &Server{
		cfg:   cfg,
		cache: c,
		log:   log,
	}, nil
}

// Start binds cfg.Workers independent SO_REUSEPORT listeners on cfg.Addr
// and runs one Worker per listener in its own goroutine (spec §2: "Each
// worker owns ... its own listening socket bound with address/port
// reuse").
func (s *Server) Start() error {
	for i := 0; i < s.cfg.Workers; i++ {
		ln, err := socket.ListenReusePort("tcp", s.cfg.Addr)
		if err != nil {
			s.stopStarted()
			return fmt.Errorf("server: binding worker %d on %s: %w", i, s.cfg.Addr, err)
		}
		if err := socket.ApplyListener(ln, socket.HighThroughputConfig()); err != nil {
			s.log.WithError(err).WithField("worker", i).Debug("could not tune listener")
		}

		w := worker.New(i, ln, worker.Config{
			DocRoot:          s.cfg.DocRoot,
			IdleTimeout:      s.cfg.IdleTimeout,
			UseSendfile:      s.cfg.UseSendfile,
			PoolSize:         1024,
			MaxEventsPerWake: s.cfg.MaxEventsPerWake,
		}, s.cache, s.log)

		s.workers = append(s.workers, w)
		s.wg.Add(1)
		go func(w *worker.Worker) {
			defer s.wg.Done()
			w.Run()
		}(w)
	}
	return nil
}

// stopStarted tears down any worker already started when Start fails
// partway through binding, so a partial failure doesn't leak listeners.
func (s *Server) stopStarted() {
	for _, w := range s.workers {
		w.Shutdown()
	}
	s.wg.Wait()
	s.workers = nil
}

// Shutdown stops every worker's listener and active connections, waiting
// up to ctx's deadline for in-flight goroutines to return (spec §4.4 "On
// shutdown: stop accepting, close all active sockets").
func (s *Server) Shutdown(ctx context.Context) error {
	for _, w := range s.workers {
		w.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestCount sums the request counters of every worker, for an
// operational log line on shutdown.
func (s *Server) RequestCount() uint64 {
	var total uint64
	for _, w := range s.workers {
		total += w.RequestCount()
	}
	return total
}

// CacheEntries reports how many URL paths the preloaded response cache
// serves, including directory-index aliases.
func (s *Server) CacheEntries() int {
	return s.cache.Len()
}
