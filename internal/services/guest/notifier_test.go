package guest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
)

// TestRedisNotifier_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisNotifier_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	channel := "hospitality-test:" + bunx.NewUUIDv7()
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	edit := Edit{GuestID: "g-1", StadiumID: "s-1", EditorID: "h-1", Fields: []string{"notes"}}
	require.NoError(t, NewRedisNotifier(client, channel).Notify(ctx, edit))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Edit
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, edit.GuestID, got.GuestID)
	assert.Equal(t, []string{"notes"}, got.Fields)
}
