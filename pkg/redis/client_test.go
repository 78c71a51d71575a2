package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
)

func newTestClient(mock *mockCmdable, namespace string) *Client {
	return &Client{cmd: mock, keys: NewKeyspace(namespace)}
}

func TestIncrWithTTLSetsExpiryOnlyWhenMissing(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := newTestClient(mock, "")
	key := client.RateLimitKey("ip", "api", "1.2.3.4")

	for want := int64(1); want <= 3; want++ {
		count, err := client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
	assert.Equal(t, 3, mock.expireCalls)
	assert.Equal(t, time.Minute, mock.ttl[key])

	// a lost expiry is repaired on the next increment
	delete(mock.ttl, key)
	_, err := client.IncrWithTTL(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mock.ttl[key])
}

func TestIncrWithTTLWithoutWindowSkipsExpire(t *testing.T) {
	mock := newMockCmdable()
	client := newTestClient(mock, "")

	count, err := client.IncrWithTTL(context.Background(), "counter", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Zero(t, mock.expireCalls)
}

func TestSetNXGetDel(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(newMockCmdable(), "")
	key := client.LockKey("cron-worker:prod")

	first, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := client.SetNX(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	owner, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	require.NoError(t, client.Set(ctx, key, "owner-c", time.Minute))
	owner, err = client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "owner-c", owner)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, client.Del(ctx))
}

func TestUninitializedClient(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	assert.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, err := client.IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, client.Close())
}

func TestKeyspace(t *testing.T) {
	client := newTestClient(newMockCmdable(), "")
	assert.Equal(t, "ft:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "ft:idempotency:id", client.IdempotencyKey("", "id"))
	assert.Equal(t, "ft:rate_limit:user:api:42", client.RateLimitKey("user", "api", "42"))
	assert.Equal(t, "ft:lock:cron-worker", client.LockKey("cron-worker"))

	staging := newTestClient(newMockCmdable(), " staging: ")
	assert.Equal(t, "staging:lock:cron-worker", staging.LockKey("cron-worker"))

	var zero Client
	assert.Equal(t, "ft:lock:x", zero.LockKey("x"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)
}

type mockCmdable struct {
	data        map[string]string
	counters    map[string]int64
	ttl         map[string]time.Duration
	expireCalls int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		counters: make(map[string]int64),
		ttl:      make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *mockCmdable) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expireCalls++
	if _, has := m.ttl[key]; has {
		return redis.NewBoolResult(false, nil)
	}
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
