// Command subsystemd is a demonstration host: it wires a BaseSubsystem with
// the standard facet set (statistics, router, queue, processor, scheduler,
// queries, requests, listeners) and serves it behind httpfacade — env ->
// config -> subsystem -> router -> serve.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lesfleursdelanuitdev/subsystem-core/config"
	"github.com/lesfleursdelanuitdev/subsystem-core/core"
	"github.com/lesfleursdelanuitdev/subsystem-core/httpfacade"
	"github.com/lesfleursdelanuitdev/subsystem-core/logging"
	"github.com/lesfleursdelanuitdev/subsystem-core/queue"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New("subsystemd", logging.ConfigFromEnv())

	sub, err := core.New("subsystemd", core.Options{Debug: cfg.Debug})
	if err != nil {
		log.Component().WithField("error", err).Fatal("failed to construct subsystem")
	}

	registerStandardFacets(sub, cfg)

	ctx := context.Background()
	if err := sub.Build(ctx); err != nil {
		log.Component().WithField("error", err).Fatal("failed to build subsystem")
	}
	log.Component().Info("subsystem built")

	reg := prometheus.NewRegistry()
	if statsFacet, ok := sub.API().Facets.Find("statistics"); ok {
		statsFacet.(*core.Statistics).RegisterCollector(reg)
	}

	facade := httpfacade.New(sub, httpfacade.Options{Registry: reg, Logger: log})

	addr := ":8080"
	if v := os.Getenv("SUBSYSTEMD_ADDR"); v != "" {
		addr = v
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           facade.Router(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Component().WithField("addr", addr).Info("subsystemd listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Component().WithField("error", err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Component().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	_ = sub.Dispose(shutdownCtx)
}

// registerStandardFacets wires the dependency chain every demo subsystem
// needs: statistics first (it requires nothing), then router/queue off
// statistics, then processor off router+queue, then scheduler off
// processor, then queries off router and requests/listeners standalone.
func registerStandardFacets(sub *core.BaseSubsystem, cfg config.Config) {
	sub.Use(core.Hook{Kind: "statistics", Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewStatisticsFacet(), nil
	}})

	sub.Use(core.Hook{Kind: "router", Required: []string{"statistics"}, Contract: &core.RouterContract, Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewRouterFacet(), nil
	}})

	sub.Use(core.Hook{Kind: "queue", Required: []string{"statistics"}, Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		stats, _ := s.API().Facets.Find("statistics")
		policy := queue.Policy(cfg.Queue.Policy)
		return core.NewQueueFacet(queue.Config{Capacity: cfg.Queue.Capacity, Policy: policy}, stats.(*core.Statistics)), nil
	}})

	sub.Use(core.Hook{Kind: "processor", Required: []string{"router", "queue", "statistics"}, Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewMessageProcessorFacet(s, nil), nil
	}})

	sub.Use(core.Hook{Kind: "scheduler", Required: []string{"processor"}, Contract: &core.SchedulerContract, Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewSchedulerFacet(s, core.SchedulerConfig{
			TimeSlice: time.Duration(cfg.Scheduler.TimeSliceMillis) * time.Millisecond,
			Priority:  cfg.Scheduler.Priority,
		}), nil
	}})

	sub.Use(core.Hook{Kind: "queries", Required: []string{"router"}, Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		router, _ := s.API().Facets.Find("router")
		return core.NewQueriesFacet(router.(*core.Router)), nil
	}})

	sub.Use(core.Hook{Kind: "requests", Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewRequestsFacet(s), nil
	}})

	sub.Use(core.Hook{Kind: "listeners", Fn: func(ctx *core.Context, api *core.API, s *core.BaseSubsystem) (core.Facet, error) {
		return core.NewListenersFacet(), nil
	}})
}
