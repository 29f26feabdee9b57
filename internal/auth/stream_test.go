package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStream_SubscribeAndUnsubscribe(t *testing.T) {
	s := NewLocalStream()
	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })
	assert.Equal(t, 1, s.Subscribers())

	require.NoError(t, s.Publish(context.Background(), Change{SessionID: "a", Pending: true}))
	require.Len(t, got, 1)
	assert.True(t, got[0].Pending)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, s.Subscribers())

	require.NoError(t, s.Publish(context.Background(), Change{SessionID: "a"}))
	assert.Len(t, got, 1)
}

func TestChange_SignedOut(t *testing.T) {
	assert.True(t, Change{SessionID: "a"}.SignedOut())
	assert.False(t, Change{SessionID: "a", Pending: true}.SignedOut())
	assert.False(t, Change{SessionID: "a", Identity: &Identity{UID: "u"}}.SignedOut())
}

type changeSink struct {
	mu  sync.Mutex
	got []Change
}

func (s *changeSink) add(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, c)
}

func (s *changeSink) snapshot() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.got...)
}

func TestRedisStream_RelaysBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	logger := zap.NewNop()

	newInstance := func() (*RedisStream, *changeSink) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		s, err := NewRedisStream(ctx, client, "test:auth-state", logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		sink := &changeSink{}
		s.Subscribe(sink.add)
		return s, sink
	}

	first, firstSink := newInstance()
	_, secondSink := newInstance()

	signedIn := Change{SessionID: "sid-1", Identity: &Identity{UID: "uid-1", DisplayName: "Ada Lovelace"}, Token: "tok"}
	require.NoError(t, first.Publish(ctx, signedIn))

	require.Eventually(t, func() bool { return len(secondSink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	remote := secondSink.snapshot()[0]
	assert.Equal(t, "sid-1", remote.SessionID)
	require.NotNil(t, remote.Identity)
	assert.Equal(t, "uid-1", remote.Identity.UID)
	assert.Empty(t, remote.Origin)

	// The publishing instance sees its own change exactly once.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, firstSink.snapshot(), 1)
}

func TestRedisStream_PendingStaysLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = clientA.Close(); _ = clientB.Close() })

	a, err := NewRedisStream(ctx, clientA, "test:auth-state", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err := NewRedisStream(ctx, clientB, "test:auth-state", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	localSink, remoteSink := &changeSink{}, &changeSink{}
	a.Subscribe(localSink.add)
	b.Subscribe(remoteSink.add)

	require.NoError(t, a.Publish(ctx, Change{SessionID: "sid-1", Pending: true}))
	require.NoError(t, a.Publish(ctx, Change{SessionID: "sid-1"}))

	require.Eventually(t, func() bool { return len(remoteSink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, remoteSink.snapshot()[0].SignedOut())
	assert.Len(t, localSink.snapshot(), 2)
}
