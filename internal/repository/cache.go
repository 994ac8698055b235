package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// 每个频道维护一个版本号，任何变更都递增版本号，旧版本的缓存自然失效
func weekVersionKey(channelID int64) string {
	return fmt.Sprintf("livestreams:version:%d", channelID)
}

func weekCacheKey(week domain.WeekRange, version int64) string {
	return fmt.Sprintf("livestreams:%d:%d:%s:%s", week.ChannelID, version, week.From.Format(domain.DateLayout), week.To.Format(domain.DateLayout))
}

func (r *Repository) cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Redis.OperationExpiration)*time.Second)
}

func (r *Repository) weekVersion(ctx context.Context, channelID int64) (int64, error) {
	v, err := r.rdb.Get(ctx, weekVersionKey(channelID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// currentWeekVersion 在查询数据库之前读取一次版本号，读写缓存都使用这个版本。
// 查询期间发生的变更会递增版本号，此次写入的旧数据不会被之后的读取命中
func (r *Repository) currentWeekVersion(channelID int64) (int64, bool) {
	if r.rdb == nil {
		return 0, false
	}

	ctx, cancel := r.cacheContext()
	defer cancel()

	version, err := r.weekVersion(ctx, channelID)
	if err != nil {
		slog.Warn("读取排班缓存版本失败", "channelID", channelID, "error", err)
		return 0, false
	}
	return version, true
}

// weekCacheEntry 是缓存中的一周排班。版本号不参与接口的 JSON，单独保存
type weekCacheEntry struct {
	Livestreams        []*domain.Livestream `json:"livestreams"`
	LivestreamVersions map[int64]int32      `json:"livestreamVersions"`
	SnapshotVersions   map[int64]int32      `json:"snapshotVersions"`
}

func newWeekCacheEntry(livestreams []*domain.Livestream) weekCacheEntry {
	entry := weekCacheEntry{
		Livestreams:        livestreams,
		LivestreamVersions: make(map[int64]int32, len(livestreams)),
		SnapshotVersions:   make(map[int64]int32),
	}
	for _, ls := range livestreams {
		entry.LivestreamVersions[ls.ID] = ls.Version
		for _, s := range ls.Snapshots {
			entry.SnapshotVersions[s.ID] = s.Version
		}
	}
	return entry
}

func (e weekCacheEntry) restore() []*domain.Livestream {
	for _, ls := range e.Livestreams {
		ls.Version = e.LivestreamVersions[ls.ID]
		for _, s := range ls.Snapshots {
			s.Version = e.SnapshotVersions[s.ID]
		}
	}
	return e.Livestreams
}

// cachedWeek 读取指定版本的缓存，未命中时返回 nil
func (r *Repository) cachedWeek(week domain.WeekRange, version int64) []*domain.Livestream {
	ctx, cancel := r.cacheContext()
	defer cancel()

	data, err := r.rdb.Get(ctx, weekCacheKey(week, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("读取排班缓存失败", "channelID", week.ChannelID, "error", err)
		}
		return nil
	}

	var entry weekCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Warn("排班缓存反序列化失败", "error", err)
		return nil
	}
	if entry.Livestreams == nil {
		return nil
	}
	return entry.restore()
}

// cacheWeek 把查询结果写入查询前读取的版本下
func (r *Repository) cacheWeek(week domain.WeekRange, version int64, livestreams []*domain.Livestream) {
	ctx, cancel := r.cacheContext()
	defer cancel()

	data, err := json.Marshal(newWeekCacheEntry(livestreams))
	if err != nil {
		slog.Warn("排班缓存序列化失败", "error", err)
		return
	}

	ttl := time.Duration(r.cfg.Cache.WeekTTL) * time.Second
	if err := r.rdb.Set(ctx, weekCacheKey(week, version), data, ttl).Err(); err != nil {
		slog.Warn("写入排班缓存失败", "channelID", week.ChannelID, "error", err)
	}
}

// InvalidateWeeks 使某个频道的所有排班缓存失效
func (r *Repository) InvalidateWeeks(channelID int64) {
	if r.rdb == nil {
		return
	}

	ctx, cancel := r.cacheContext()
	defer cancel()

	if err := r.rdb.Incr(ctx, weekVersionKey(channelID)).Err(); err != nil {
		slog.Warn("清除排班缓存失败", "channelID", channelID, "error", err)
	}
}
