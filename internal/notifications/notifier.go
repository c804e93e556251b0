// Package notifications publishes domain events over Redis pub/sub so that
// operator tools and future realtime clients can follow them.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"pcoscare/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	// AdminChannel carries events every administrator should see.
	AdminChannel = "notifications:admin"

	userChannelPrefix = "notifications:user:"
)

// Event types.
const (
	EventAppointmentBooked  = "appointment_booked"
	EventAppointmentUpdated = "appointment_status_changed"
	EventContactReceived    = "contact_received"
)

// Event is the JSON payload published on a notification channel.
type Event struct {
	Type    string    `json:"type"`
	ID      uint      `json:"id"`
	Status  string    `json:"status,omitempty"`
	Summary string    `json:"summary,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels.
// A nil Redis client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAdmin sends an event to the admin channel.
func (n *Notifier) PublishAdmin(ctx context.Context, ev Event) error {
	return n.publish(ctx, AdminChannel, ev)
}

// PublishUser sends an event to a single user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, ev Event) error {
	return n.publish(ctx, UserChannel(userID), ev)
}

func (n *Notifier) publish(ctx context.Context, channel string, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe listens on the given channels and calls onEvent for every
// decodable message until ctx is cancelled. Patterns such as
// "notifications:user:*" are accepted.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, ev Event), channels ...string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if len(channels) == 0 {
		channels = []string{AdminChannel}
	}
	sub := n.rdb.PSubscribe(ctx, channels...)
	// Wait for the subscription to be confirmed so publishes right after
	// Subscribe returns are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", strings.Join(channels, ","), err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping undecodable notification",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}
