package seed

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/utils"
)

// Store 是填充测试数据需要的存储操作，由 repository.Repository 实现
type Store interface {
	CreateUser(user *domain.User) error
	CreateChannel(c *domain.Channel) error
	CreatePeriod(p *domain.Period) error
	GetPeriods(channelID int64) ([]*domain.Period, error)
	FillWeekFromPeriods(week domain.WeekRange, periods []*domain.Period) (int, error)
	GetLivestreams(week domain.WeekRange) ([]*domain.Livestream, error)
	GetActiveUsersByRole(roles ...domain.Role) ([]*domain.User, error)
	UpdateSnapshot(s *domain.Snapshot) error
}

type Seeder struct {
	store    Store
	password string
	domain   string
}

func NewSeeder(store Store, password string, emailDomain string) *Seeder {
	return &Seeder{store: store, password: password, domain: emailDomain}
}

// Users 插入 n 个随机员工，用户名冲突等失败的记录会跳过
func (s *Seeder) Users(n int) ([]*domain.User, error) {
	if n <= 0 {
		return nil, errors.New("请输入合法的用户数量")
	}

	users := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(s.password, s.domain)
		if err != nil {
			slog.Error("无法生成随机用户", slog.String("error", err.Error()))
			continue
		}

		if err := s.store.CreateUser(user); err != nil {
			slog.Error("无法插入用户", slog.String("username", user.Username), slog.String("error", err.Error()))
			continue
		}

		users = append(users, user)
	}

	return users, nil
}

// ChannelResult 是一个新频道及其默认时段
type ChannelResult struct {
	Channel *domain.Channel
	Periods []*domain.Period
}

// Channels 插入 n 个随机频道，每个频道带一套默认时段
func (s *Seeder) Channels(n int) ([]ChannelResult, error) {
	if n <= 0 {
		return nil, errors.New("请输入合法的频道数量")
	}

	results := make([]ChannelResult, 0, n)
	for i := 0; i < n; i++ {
		c := &domain.Channel{Name: utils.GenerateRandomChannelName()}
		if err := s.store.CreateChannel(c); err != nil {
			slog.Error("无法插入频道", slog.String("name", c.Name), slog.String("error", err.Error()))
			continue
		}

		periods := utils.GenerateDefaultPeriods(c.ID)
		if err := utils.ValidatePeriods(periods); err != nil {
			return results, err
		}
		for _, p := range periods {
			if err := s.store.CreatePeriod(p); err != nil {
				return results, err
			}
		}

		results = append(results, ChannelResult{Channel: c, Periods: periods})
	}

	return results, nil
}

// WeekResult 是填充一周排班的结果
type WeekResult struct {
	Created  int
	Assigned int
}

// Week 按频道时段为 monday 起的一周生成班次，assign 为 true 时用自动排班的建议填入负责人
func (s *Seeder) Week(channelID int64, monday time.Time, assign bool, parameters *scheduler.Parameters) (WeekResult, error) {
	week := domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: channelID}
	if err := utils.ValidateWeekRange(week); err != nil {
		return WeekResult{}, err
	}

	periods, err := s.store.GetPeriods(channelID)
	if err != nil {
		return WeekResult{}, err
	}

	result := WeekResult{}
	result.Created, err = s.store.FillWeekFromPeriods(week, periods)
	if err != nil {
		return result, err
	}
	if !assign {
		return result, nil
	}

	livestreams, err := s.store.GetLivestreams(week)
	if err != nil {
		return result, err
	}
	users, err := s.store.GetActiveUsersByRole(domain.RoleHost, domain.RoleAssistant)
	if err != nil {
		return result, err
	}

	sch, err := scheduler.New(parameters, users, livestreams)
	if err != nil {
		return result, err
	}
	suggestions, err := sch.Schedule()
	if err != nil {
		if errors.Is(err, scheduler.ErrNothingToAssign) {
			return result, nil
		}
		return result, err
	}

	snapshots := make(map[int64]*domain.Snapshot)
	for _, ls := range livestreams {
		for _, snap := range ls.Snapshots {
			snapshots[snap.ID] = snap
		}
	}

	for _, sug := range suggestions {
		snap, ok := snapshots[sug.SnapshotID]
		if !ok {
			continue
		}
		assignee := sug.Assignee
		snap.Assignee = &assignee
		if err := s.store.UpdateSnapshot(snap); err != nil {
			slog.Error("无法写入负责人", slog.Int64("snapshot_id", snap.ID), slog.String("error", err.Error()))
			continue
		}
		result.Assigned++
	}

	return result, nil
}
