package guest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Edit describes a committed guest change, published for stadium admins.
type Edit struct {
	GuestID   string    `json:"guest_id"`
	StadiumID string    `json:"stadium_id"`
	RoomID    string    `json:"room_id"`
	EditorID  string    `json:"editor_id"`
	Editor    string    `json:"editor"`
	Fields    []string  `json:"fields"`
	Version   time.Time `json:"version"`
}

// Notifier delivers edit notifications. Delivery is best-effort: callers
// log a failure and carry on.
type Notifier interface {
	Notify(ctx context.Context, edit Edit) error
}

// LogNotifier writes edits to the log.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(_ context.Context, edit Edit) error {
	n.Log.WithFields(logrus.Fields{
		"guest_id":   edit.GuestID,
		"stadium_id": edit.StadiumID,
		"editor_id":  edit.EditorID,
		"fields":     edit.Fields,
	}).Info("guest edited by hostess")
	return nil
}

// RedisNotifier publishes edits as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisNotifier creates a notifier publishing to channel.
func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, edit Edit) error {
	payload, err := json.Marshal(edit)
	if err != nil {
		return fmt.Errorf("encode guest edit: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish guest edit: %w", err)
	}
	return nil
}

// MultiNotifier fans out to every notifier and returns the first error.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, edit Edit) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, edit); err != nil && first == nil {
			first = err
		}
	}
	return first
}
