package repository

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/config"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func newCacheRepository(t *testing.T) *Repository {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.Redis.OperationExpiration = 5
	cfg.Cache.WeekTTL = 300
	return NewRepository(cfg, nil, rdb)
}

func cacheWeekRange() domain.WeekRange {
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	return domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: 3}
}

func cachedLivestreams(assignee int64) []*domain.Livestream {
	return []*domain.Livestream{{
		ID:        10,
		ChannelID: 3,
		Date:      time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		Version:   4,
		Snapshots: []*domain.Snapshot{{
			ID:           20,
			LivestreamID: 10,
			Period:       domain.PeriodData{ChannelID: 3, StartTime: domain.TimeOfDay{Hour: 9}, EndTime: domain.TimeOfDay{Hour: 10}, For: domain.RoleHost},
			Assignee:     &assignee,
			Version:      7,
		}},
	}}
}

func TestCacheWrittenDuringInvalidationIsNotServed(t *testing.T) {
	r := newCacheRepository(t)
	week := cacheWeekRange()

	// 读取方在查询数据库前拿到版本号
	before, ok := r.currentWeekVersion(week.ChannelID)
	require.True(t, ok)

	// 查询期间另一个请求提交了变更
	r.InvalidateWeeks(week.ChannelID)

	// 读取方把旧数据写入查询前的版本
	r.cacheWeek(week, before, cachedLivestreams(1))

	after, ok := r.currentWeekVersion(week.ChannelID)
	require.True(t, ok)
	assert.NotEqual(t, before, after)
	assert.Nil(t, r.cachedWeek(week, after), "变更之后的读取不应命中旧数据")
}

func TestCachedWeekKeepsVersions(t *testing.T) {
	r := newCacheRepository(t)
	week := cacheWeekRange()

	version, ok := r.currentWeekVersion(week.ChannelID)
	require.True(t, ok)
	r.cacheWeek(week, version, cachedLivestreams(42))

	cached := r.cachedWeek(week, version)
	require.Len(t, cached, 1)
	assert.Equal(t, int32(4), cached[0].Version)
	require.Len(t, cached[0].Snapshots, 1)
	snap := cached[0].Snapshots[0]
	assert.Equal(t, int32(7), snap.Version, "命中缓存后仍能用版本号写回")
	require.NotNil(t, snap.Assignee)
	assert.Equal(t, int64(42), *snap.Assignee)
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	r := NewRepository(&config.Config{}, nil, nil)

	_, ok := r.currentWeekVersion(1)
	assert.False(t, ok)
	r.InvalidateWeeks(1)
}
