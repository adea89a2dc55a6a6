//go:build integration

package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cookgems/pkg/cookbook"
)

// Run with: COOKGEMS_TEST_REDIS_URL=redis://localhost:6379 go test -tags integration ./pkg/events
func TestRedisPublishWatch(t *testing.T) {
	url := os.Getenv("COOKGEMS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("COOKGEMS_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectRedis(ctx, url)
	if err != nil {
		t.Fatalf("ConnectRedis: %v", err)
	}
	defer client.Close()

	channel := "cookgems:test:" + uuid.NewString()[:8]
	runID := uuid.NewString()

	ready := make(chan struct{})
	got := make(chan []Event, 1)
	go func() {
		var seen []Event
		_ = Watch(ctx, client, channel, func(e Event) bool {
			if e.Type == "" {
				return true
			}
			seen = append(seen, e)
			return !e.Terminal()
		})
		got <- seen
	}()

	// Watch subscribes asynchronously; wait until the channel has a subscriber.
	go func() {
		defer close(ready)
		sub := client.PubSubNumSub(ctx, channel)
		for sub.Err() == nil && sub.Val()[channel] == 0 {
			time.Sleep(20 * time.Millisecond)
			sub = client.PubSubNumSub(ctx, channel)
		}
	}()
	<-ready

	pub := NewRedisPublisher(client, channel, runID, nil)
	pub.Start([]cookbook.GemRequirement{cookbook.Gem("vault", "~> 0.18")})
	pub.Installing("vault", "0.18.2")
	pub.Finished()

	events := <-got
	want := []Type{TypeStart, TypeInstalling, TypeFinished}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, e := range events {
		if e.Type != want[i] || e.RunID != runID {
			t.Errorf("event %d = %+v, want type %s run %s", i, e, want[i], runID)
		}
	}
}
