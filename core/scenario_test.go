package core

import (
	"context"
	"testing"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
	"github.com/lesfleursdelanuitdev/subsystem-core/queue"
)

// TestSynchronousAcceptEndToEnd reproduces scenario E: a subsystem with
// Synchronous, Processor, Router, Statistics, Queue facets dispatches a
// message inline, never touching the queue.
func TestSynchronousAcceptEndToEnd(t *testing.T) {
	sub, err := New("root", Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	handlerInvoked := false

	sub.Use(Hook{Kind: "statistics", Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return NewStatisticsFacet(), nil
	}})
	sub.Use(Hook{Kind: "router", Required: []string{"statistics"}, Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return NewRouterFacet(), nil
	}})
	sub.Use(Hook{Kind: "queue", Required: []string{"statistics"}, Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		stats, _ := s.API().Facets.Find("statistics")
		return NewQueueFacet(queue.Config{Capacity: 10, Policy: queue.Reject}, stats.(*Statistics)), nil
	}})
	sub.Use(Hook{Kind: "processor", Required: []string{"router", "queue", "statistics"}, Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return NewMessageProcessorFacet(s, nil), nil
	}})
	sub.Use(Hook{Kind: "synchronous", Required: []string{"processor"}, Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return NewSynchronousFacet(s), nil
	}})

	ctx := context.Background()
	if err := sub.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}

	router, _ := sub.API().Facets.Find("router")
	router.(*Router).RegisterRoute("test/path", func(ctx context.Context, msg *message.Message, params map[string]string, opts AcceptOptions) (any, error) {
		handlerInvoked = true
		return map[string]any{"ok": true}, nil
	}, RouteOptions{})

	msg, err := message.New("test/path", map[string]any{}, message.Options{})
	if err != nil {
		t.Fatalf("message.New: %v", err)
	}

	if _, err := sub.Accept(ctx, msg, AcceptOptions{}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if !handlerInvoked {
		t.Fatalf("expected handler invoked before accept resolves")
	}

	queueFacet, _ := sub.API().Facets.Find("queue")
	if queueFacet.(*Queue).Size() != 0 {
		t.Fatalf("expected queue size 0 with synchronous driver installed")
	}

	stats, _ := sub.API().Facets.Find("statistics")
	got := stats.(*Statistics).GetStatistics()
	if got.MessagesAccepted != 1 || got.MessagesProcessed != 1 {
		t.Fatalf("expected accepted=1 processed=1, got %+v", got)
	}
}
