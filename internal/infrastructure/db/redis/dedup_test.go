package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

func newTestDedup(t *testing.T) (*DedupChecker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDedupChecker(client), mr
}

func completion(occurrence string) domain.Notification {
	return domain.Notification{
		Event:      domain.EventTaskCompleted,
		EntityID:   "task1",
		Occurrence: occurrence,
		Phone:      "+15550001",
		Message:    "done",
	}
}

func TestKey(t *testing.T) {
	n := domain.Notification{Event: domain.EventTaskAssigned, EntityID: "t1", Phone: "+15550001"}
	assert.Equal(t, "notify:task_assigned:t1:+15550001", Key(n))

	n.Occurrence = "1700000000"
	assert.Equal(t, "notify:task_assigned:t1:1700000000:+15550001", Key(n))
}

func TestDedupChecker_ClaimOnce(t *testing.T) {
	d, mr := newTestDedup(t)
	ctx := context.Background()
	n := completion("1")

	first, err := d.Claim(ctx, n)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.Claim(ctx, n)
	require.NoError(t, err)
	assert.False(t, again, "a replay of the same notification must be suppressed")

	assert.True(t, mr.Exists(Key(n)))
	assert.Equal(t, dedupTTL, mr.TTL(Key(n)))
}

func TestDedupChecker_ReleaseAllowsReclaim(t *testing.T) {
	d, mr := newTestDedup(t)
	ctx := context.Background()
	n := completion("1")

	_, err := d.Claim(ctx, n)
	require.NoError(t, err)
	require.NoError(t, d.Release(ctx, n))
	assert.False(t, mr.Exists(Key(n)))

	ok, err := d.Claim(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDedupChecker_ClaimExpiresAfterTTL(t *testing.T) {
	d, mr := newTestDedup(t)
	ctx := context.Background()
	n := completion("1")

	_, err := d.Claim(ctx, n)
	require.NoError(t, err)

	mr.FastForward(dedupTTL + time.Second)

	ok, err := d.Claim(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDedupChecker_SeparateCompletionsBothClaim(t *testing.T) {
	d, _ := newTestDedup(t)
	ctx := context.Background()

	// completed, reopened, completed again within the TTL.
	first, err := d.Claim(ctx, completion("1700000000000000000"))
	require.NoError(t, err)
	second, err := d.Claim(ctx, completion("1700000600000000000"))
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
}

func TestDedupChecker_ServerDown(t *testing.T) {
	d, mr := newTestDedup(t)
	mr.Close()

	_, err := d.Claim(context.Background(), completion("1"))
	assert.Error(t, err)
}

func TestNoopDedup(t *testing.T) {
	var d NoopDedup
	ok, err := d.Claim(context.Background(), domain.Notification{})
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, d.Release(context.Background(), domain.Notification{}))
}

func TestNew_EmptyAddrDisables(t *testing.T) {
	client := New(Config{})
	assert.Nil(t, client)

	// A disabled client is usable as-is.
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
	assert.IsType(t, NoopDedup{}, client.Dedup())
}

func TestNew_LiveServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := New(Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	assert.True(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.IsType(t, &DedupChecker{}, client.Dedup())
}

func TestNew_UnreachableServerStaysEnabled(t *testing.T) {
	client := New(Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	// Configured but down: reported as unhealthy, not as disabled.
	assert.True(t, client.Enabled())
	assert.Error(t, client.Ping(context.Background()))
	assert.IsType(t, &DedupChecker{}, client.Dedup())
}
