// Package stream relays session events to Redis so that other processes can
// follow a session, and reads them back for the watch command.
package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jengzang/activity-tracker-go/internal/metrics"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const relayBuffer = 64

// Relay publishes every broker event on the session's Redis channel
type Relay struct {
	redis  *redis.Client
	broker *tracking.Broker
	prefix string
	logger zerolog.Logger
}

// NewRelay creates a relay; prefix defaults to "tracking"
func NewRelay(client *redis.Client, broker *tracking.Broker, prefix string, logger zerolog.Logger) *Relay {
	if prefix == "" {
		prefix = "tracking"
	}
	return &Relay{
		redis:  client,
		broker: broker,
		prefix: prefix,
		logger: logger.With().Str("component", "relay").Logger(),
	}
}

// Run forwards events until ctx is done. Publish failures are logged and
// counted; events are not retried.
func (r *Relay) Run(ctx context.Context) {
	sub := r.broker.Subscribe(relayBuffer)
	defer sub.Close()

	r.logger.Info().Str("pattern", Pattern(r.prefix)).Msg("Event relay started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Event relay stopped")
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			r.publish(ctx, ev)
		}
	}
}

func (r *Relay) publish(ctx context.Context, ev tracking.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to encode event")
		return
	}

	if err := r.redis.Publish(ctx, Channel(r.prefix, ev.SessionID), payload).Err(); err != nil {
		metrics.RelayPublishErrors.Inc()
		r.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Int64("session_id", ev.SessionID).Msg("Redis publish error")
	}
}

// Watch subscribes to every session channel under prefix and calls fn for
// each decoded event until ctx is done.
func Watch(ctx context.Context, client *redis.Client, prefix string, fn func(tracking.Event)) error {
	pubsub := client.PSubscribe(ctx, Pattern(prefix))
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev tracking.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			if id, ok := SessionIDFromChannel(prefix, msg.Channel); ok && ev.SessionID == 0 {
				ev.SessionID = id
			}
			fn(ev)
		}
	}
}

// Channel returns "<prefix>:<sessionID>:events"
func Channel(prefix string, sessionID int64) string {
	return prefix + ":" + strconv.FormatInt(sessionID, 10) + ":events"
}

// Pattern matches every session channel under prefix
func Pattern(prefix string) string {
	return prefix + ":*:events"
}

// SessionIDFromChannel parses the session id out of a channel name
func SessionIDFromChannel(prefix, ch string) (int64, bool) {
	// {prefix}:{session}:events
	rest, ok := strings.CutPrefix(ch, prefix+":")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ":events")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
