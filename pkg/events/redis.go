package events

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "cookgems:events"

const publishTimeout = 2 * time.Second

// Publisher is the subset of *redis.Client used to publish events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes every event as JSON to a Redis channel. Publish
// failures are logged and otherwise ignored.
type RedisPublisher struct {
	client  Publisher
	channel string
	runID   string
	logger  *log.Logger
	now     func() time.Time
}

// NewRedisPublisher creates a publisher tagging events with runID.
func NewRedisPublisher(client Publisher, channel, runID string, logger *log.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisPublisher{client: client, channel: channel, runID: runID, logger: logger, now: time.Now}
}

// Channel returns the channel events are published to.
func (p *RedisPublisher) Channel() string { return p.channel }

func (p *RedisPublisher) Start(gems []cookbook.GemRequirement) {
	p.publish(Event{Type: TypeStart, Gems: gems})
}

func (p *RedisPublisher) Installing(name, version string) {
	p.publish(Event{Type: TypeInstalling, Gem: name, Version: version})
}

func (p *RedisPublisher) Using(name, version string) {
	p.publish(Event{Type: TypeUsing, Gem: name, Version: version})
}

func (p *RedisPublisher) Finished() {
	p.publish(Event{Type: TypeFinished})
}

func (p *RedisPublisher) Failed(err error) {
	e := Event{Type: TypeFailed}
	if err != nil {
		e.Error = errors.UserMessage(err)
	}
	p.publish(e)
}

func (p *RedisPublisher) publish(e Event) {
	e.RunID = p.runID
	e.Time = p.now().UTC()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		p.logger.Warn("could not encode event", "type", e.Type, "err", err)
		return
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("could not publish event", "channel", p.channel, "type", e.Type, "err", err)
	}
}

// ConnectRedis parses url (redis://...) and checks the server is reachable.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping redis")
	}
	return client, nil
}

// Watch subscribes to channel and calls fn for each decoded event until ctx
// is done or fn returns false. Messages that are not events are skipped.
func Watch(ctx context.Context, client *redis.Client, channel string, fn func(Event) bool) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "subscribe to %s", channel)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil || e.Type == "" {
				continue
			}
			if !fn(e) {
				return nil
			}
		}
	}
}

var _ geminstall.EventSink = (*RedisPublisher)(nil)
