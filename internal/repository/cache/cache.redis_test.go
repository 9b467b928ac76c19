package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dosense/dohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), Config{
		Addr:      mr.Addr(),
		LatestTTL: 10 * time.Minute,
		StatsTTL:  time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestLatestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	miss, err := c.GetLatest(ctx, "sen_1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	do := 8.25
	require.NoError(t, c.SetLatest(ctx, &models.Reading{ID: "rd_1", SensorID: "sen_1", CapturedAt: 100, DOConcentration: &do}))

	got, err := c.GetLatest(ctx, "sen_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rd_1", got.ID)
	assert.Equal(t, 8.25, *got.DOConcentration)
	assert.Nil(t, got.Temperature)

	assert.Equal(t, 10*time.Minute, mr.TTL(Key(kindLatest, "sen_1")))
	mr.FastForward(11 * time.Minute)
	got, err = c.GetLatest(ctx, "sen_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyHashesParts(t *testing.T) {
	a := Key("stats", "sen_1", "0", "100")
	b := Key("stats", "sen_1", "0", "100")
	c := Key("stats", "sen_1", "0", "1000")
	d := Key("stats", "sen_1", "01", "00")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "dohub:stats:sen_1:")
}

func TestInvalidateSensor(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	type payload struct {
		Count int `msgpack:"count"`
	}
	require.NoError(t, c.Set(ctx, Key("stats", "sen_1", "a"), payload{Count: 3}))
	require.NoError(t, c.Set(ctx, Key("stats", "sen_2", "a"), payload{Count: 4}))
	require.NoError(t, c.SetLatest(ctx, &models.Reading{SensorID: "sen_1"}))

	var out payload
	found, err := c.Get(ctx, Key("stats", "sen_1", "a"), &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, out.Count)

	require.NoError(t, c.InvalidateSensor(ctx, "sen_1"))

	found, err = c.Get(ctx, Key("stats", "sen_1", "a"), &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(Key(kindLatest, "sen_1")))
	assert.True(t, mr.Exists(Key("stats", "sen_2", "a")))
}

func TestUndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	key := Key("stats", "sen_1", "x")
	require.NoError(t, mr.Set(key, "\xc1"))

	var out struct{ A int }
	found, err := c.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(key))
}
