package notifications

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()

	s, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go s.Start()
	if !s.ReadyForConnections(5 * time.Second) {
		s.Shutdown()
		t.Fatal("nats server not ready")
	}

	t.Cleanup(func() {
		s.Shutdown()
		s.WaitForShutdown()
	})

	return s
}

func TestNATSEmitterPublishes(t *testing.T) {
	s := runNATSServer(t)

	sub, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("datescape.notifications.match", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	emitter, err := NewNATSEmitter(s.ClientURL(), "datescape.notifications")
	require.NoError(t, err)
	defer emitter.Close()

	record := NewRecord(TypeMatch, "b", "a", "a_b", time.Now())
	require.NoError(t, emitter.Emit(context.Background(), record))

	select {
	case msg := <-msgs:
		var got Record
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, "b", got.RecipientID)
		assert.Equal(t, "a_b", got.Data["matchId"])
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestNATSEmitterConnectFailure(t *testing.T) {
	_, err := NewNATSEmitter("nats://127.0.0.1:1", "x")
	assert.Error(t, err)
}

func TestRedisDeduper(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	d := NewRedisDeduper(client, time.Minute)
	key := dedupeKey(TypeMatch, "redis-test", time.Now().Format(time.RFC3339Nano))

	ok, err := d.MarkOnce(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.MarkOnce(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Clear(ctx, key))
}
