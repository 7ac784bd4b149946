package core

import (
	"context"
	"testing"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

func okHandler(ctx context.Context, msg *message.Message, params map[string]string, opts AcceptOptions) (any, error) {
	return map[string]any{"ok": true}, nil
}

func TestRouterPriorityDominance(t *testing.T) {
	r := NewRouterFacet()
	if _, err := r.RegisterRoute("query/*", okHandler, RouteOptions{Priority: 10}); err != nil {
		t.Fatalf("register query/*: %v", err)
	}
	if _, err := r.RegisterRoute("query/ping", okHandler, RouteOptions{Priority: 0}); err != nil {
		t.Fatalf("register query/ping: %v", err)
	}

	handle, _, ok := r.Match("query/ping")
	if !ok {
		t.Fatalf("expected a match")
	}
	if handle.Pattern.String() != "query/*" {
		t.Fatalf("expected query/* to dominate, got %q", handle.Pattern.String())
	}

	if !r.UnregisterRoute("query/*") {
		t.Fatalf("expected query/* to be removed")
	}
	handle, _, ok = r.Match("query/ping")
	if !ok || handle.Pattern.String() != "query/ping" {
		t.Fatalf("expected literal route to win after removal")
	}
}

func TestRouterNoRouteFails(t *testing.T) {
	r := NewRouterFacet()
	msg, _ := message.New("nope", nil, message.Options{})
	if _, err := r.Route(context.Background(), msg, AcceptOptions{}); err == nil {
		t.Fatalf("expected NoRoute error")
	}
}

func TestRouterRejectsDuplicateWithoutOverwrite(t *testing.T) {
	r := NewRouterFacet()
	r.RegisterRoute("a/b", okHandler, RouteOptions{})
	if _, err := r.RegisterRoute("a/b", okHandler, RouteOptions{}); err == nil {
		t.Fatalf("expected duplicate pattern rejection")
	}
	if _, err := r.RegisterRoute("a/b", okHandler, RouteOptions{Overwrite: true}); err != nil {
		t.Fatalf("expected overwrite to succeed, got %v", err)
	}
}
