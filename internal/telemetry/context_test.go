package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/petasbytes/review-agent/internal/telemetry"
)

func TestTurnID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithTurnID(context.Background(), "turn-123")
	got, ok := telemetry.TurnIDFromContext(ctx)
	if !ok || got != "turn-123" {
		t.Fatalf("want turn-123,true; got %q,%v", got, ok)
	}
}

func TestTurnID_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithTurnID(context.Background(), "")
	got, ok := telemetry.TurnIDFromContext(ctx)
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestTurnID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	child := telemetry.WithTurnID(parent, "t1")
	cancel()

	select {
	case <-child.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}

func TestTurnID_LastWriteWins(t *testing.T) {
	ctx1 := telemetry.WithTurnID(context.Background(), "t1")
	ctx2 := telemetry.WithTurnID(ctx1, "t2")

	got, ok := telemetry.TurnIDFromContext(ctx2)
	if !ok || got != "t2" {
		t.Fatalf("want t2,true; got %q,%v", got, ok)
	}
}
