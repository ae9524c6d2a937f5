package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cutline/pkg/adapters/redis"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunJobStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_KeysUsePrefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("shop:"))
	ctx := context.Background()

	job := domain.NewJob("j1", "plotter", domain.DeviceProfile{Name: "a4"}, domain.DefaultParams())
	require.NoError(t, store.Save(ctx, job))

	assert.True(t, mr.Exists("shop:j1"))
	members, err := mr.ZMembers("shop:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, members)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	job := domain.NewJob("job-ttl", "plotter", domain.DeviceProfile{Name: "a4"}, domain.DefaultParams())
	require.NoError(t, store.Save(ctx, job))

	_, err := store.Load(ctx, "job-ttl")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "job-ttl")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()
	store := redis.NewFromClient(client)

	// An index entry whose score is already in the past.
	require.NoError(t, client.ZAdd(ctx, redis.DefaultPrefix+"index", backend.Z{Score: 1, Member: "stale"}).Err())
	require.NoError(t, store.Save(ctx, domain.NewJob("fresh", "plotter", domain.DeviceProfile{}, domain.DefaultParams())))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrJobNotFound)
}
