package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var (
	ErrWeekLocked        = errors.New("该周排班已锁定，无法修改")
	ErrWeekNotLocked     = errors.New("该周排班尚未锁定")
	ErrInvalidTimeRange  = errors.New("结束时间必须晚于开始时间")
	ErrMutationPending   = errors.New("操作正在进行中，请稍候")
	ErrSnapshotNotFound  = errors.New("班次不存在")
	ErrNoWeekLoaded      = errors.New("尚未加载排班数据")
	ErrPeriodRequired    = errors.New("请选择时段")
	ErrAssigneeRequired  = errors.New("请选择负责人")
	ErrInvalidWeekRange  = errors.New("日期范围无效")
	ErrAltRequestMissing = errors.New("替班申请不存在")
)

// Syncer 把本地确认的操作转换为服务端请求，并在成功后重新拉取本周数据。
// 失败时只发出提示，本地缓存保持为最后一次服务端确认的状态。
type Syncer struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger

	mu          sync.Mutex
	week        *domain.WeekRange
	livestreams []*domain.Livestream
	pending     map[string]struct{}
}

func NewSyncer(backend Backend, notifier Notifier, logger *slog.Logger) *Syncer {
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Syncer{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

// Load 拉取指定日期范围和频道的排班并作为当前视图
func (s *Syncer) Load(ctx context.Context, week domain.WeekRange) error {
	if week.To.Before(week.From) {
		s.notifier.Notify(SeverityError, ErrInvalidWeekRange.Error())
		return ErrInvalidWeekRange
	}

	livestreams, err := s.backend.ListLivestreams(ctx, week)
	if err != nil {
		s.fail("拉取排班失败", err)
		return err
	}

	s.mu.Lock()
	s.week = &week
	s.livestreams = livestreams
	s.mu.Unlock()

	return nil
}

// Refresh 重新拉取当前视图，只在变更成功后调用
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	week := s.week
	s.mu.Unlock()

	if week == nil {
		return ErrNoWeekLoaded
	}
	return s.Load(ctx, *week)
}

func (s *Syncer) Week() (domain.WeekRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.week == nil {
		return domain.WeekRange{}, false
	}
	return *s.week, true
}

func (s *Syncer) Livestreams() []*domain.Livestream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Livestream(nil), s.livestreams...)
}

// Snapshot 在当前视图中查找班次及其所属的直播日
func (s *Syncer) Snapshot(id int64) (*domain.Snapshot, *domain.Livestream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findSnapshot(id)
}

func (s *Syncer) findSnapshot(id int64) (*domain.Snapshot, *domain.Livestream, bool) {
	for _, ls := range s.livestreams {
		if snap := ls.Snapshot(id); snap != nil {
			return snap, ls, true
		}
	}
	return nil, nil, false
}

func (s *Syncer) livestreamOn(date time.Time, channelID int64) *domain.Livestream {
	y, m, d := date.Date()
	for _, ls := range s.livestreams {
		ly, lm, ld := ls.Date.Date()
		if ls.ChannelID == channelID && ly == y && lm == m && ld == d {
			return ls
		}
	}
	return nil
}

// IsLocked 判断班次所在的周是否已锁定
func (s *Syncer) IsLocked(snapshotID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ls, ok := s.findSnapshot(snapshotID)
	return ok && ls.Fixed
}

// IsDayLocked 判断某频道某天是否已锁定，当天没有直播数据时视为未锁定
func (s *Syncer) IsDayLocked(date time.Time, channelID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := s.livestreamOn(date, channelID)
	return ls != nil && ls.Fixed
}

// IsWeekLocked 当前视图中只要有一天锁定即视为整周锁定
func (s *Syncer) IsWeekLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.livestreams {
		if ls.Fixed {
			return true
		}
	}
	return false
}

func (s *Syncer) IsPending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

func (s *Syncer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *Syncer) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

func (s *Syncer) fail(msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.notifier.Notify(SeverityError, fmt.Sprintf("%s: %v", msg, err))
}

// Refuse 提示一个本地校验失败并原样返回，不发出任何请求
func (s *Syncer) Refuse(err error) error {
	s.notifier.Notify(SeverityError, err.Error())
	return err
}

// mutate 执行一次变更：同一个 key 同时只允许一个请求，成功后提示并重新拉取
func (s *Syncer) mutate(ctx context.Context, key, failMsg, successMsg string, fn func(ctx context.Context) error) error {
	if !s.begin(key) {
		return ErrMutationPending
	}
	defer s.end(key)

	if err := fn(ctx); err != nil {
		s.fail(failMsg, err)
		return err
	}

	s.notifier.Notify(SeveritySuccess, successMsg)

	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrNoWeekLoaded) {
		// 变更已经成功，刷新失败只提示，由用户手动刷新
		s.logger.Warn("变更后刷新失败", "key", key, "error", err)
	}
	return nil
}

func (s *Syncer) requireUnlocked(snapshotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ls, ok := s.findSnapshot(snapshotID)
	if !ok {
		return ErrSnapshotNotFound
	}
	if ls.Fixed {
		return ErrWeekLocked
	}
	return nil
}

// AssignInput 对应一次分配：SnapshotID 为空时根据时段模板新建班次
type AssignInput struct {
	SnapshotID *int64
	Period     *domain.Period
	Date       time.Time
	UserID     int64
	Role       domain.Role
}

func (s *Syncer) Assign(ctx context.Context, in AssignInput) error {
	if in.UserID <= 0 {
		return s.Refuse(ErrAssigneeRequired)
	}

	if in.SnapshotID != nil {
		id := *in.SnapshotID
		if err := s.requireUnlocked(id); err != nil {
			return s.Refuse(err)
		}
		userID := in.UserID
		return s.mutate(ctx, fmt.Sprintf("assign:%d", id), "分配失败", "分配成功", func(ctx context.Context) error {
			return s.backend.UpdateAssignee(ctx, id, &userID)
		})
	}

	if in.Period == nil {
		return s.Refuse(ErrPeriodRequired)
	}
	if s.IsDayLocked(in.Date, in.Period.ChannelID) {
		return s.Refuse(ErrWeekLocked)
	}

	role := in.Role
	if role == "" {
		role = in.Period.For
	}
	userID := in.UserID
	draft := domain.ShiftDraft{
		Date:      in.Date,
		ChannelID: in.Period.ChannelID,
		PeriodID:  &in.Period.ID,
		StartTime: in.Period.StartTime,
		EndTime:   in.Period.EndTime,
		For:       role,
		Assignee:  &userID,
		Goal:      0,
	}
	key := fmt.Sprintf("assign:period:%d:%s", in.Period.ID, in.Date.Format(domain.DateLayout))
	return s.mutate(ctx, key, "分配失败", "分配成功", func(ctx context.Context) error {
		_, err := s.backend.AddShift(ctx, draft)
		return err
	})
}

// Unassign 只清空负责人，不删除班次
func (s *Syncer) Unassign(ctx context.Context, snapshotID int64) error {
	if err := s.requireUnlocked(snapshotID); err != nil {
		return s.Refuse(err)
	}
	return s.mutate(ctx, fmt.Sprintf("assign:%d", snapshotID), "取消分配失败", "已取消分配", func(ctx context.Context) error {
		return s.backend.UpdateAssignee(ctx, snapshotID, nil)
	})
}

// ResizeTime 在发出请求前校验结束时间晚于开始时间
func (s *Syncer) ResizeTime(ctx context.Context, snapshotID int64, start, end domain.TimeOfDay) error {
	if !start.Valid() || !end.Valid() || !start.Before(end) {
		return s.Refuse(ErrInvalidTimeRange)
	}
	if err := s.requireUnlocked(snapshotID); err != nil {
		return s.Refuse(err)
	}
	return s.mutate(ctx, fmt.Sprintf("time:%d", snapshotID), "更新班次时间失败", "班次时间已更新", func(ctx context.Context) error {
		return s.backend.UpdateShiftTime(ctx, snapshotID, start, end)
	})
}

func (s *Syncer) CreateShift(ctx context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error) {
	if !draft.StartTime.Valid() || !draft.EndTime.Valid() || !draft.StartTime.Before(draft.EndTime) {
		return nil, s.Refuse(ErrInvalidTimeRange)
	}
	if s.IsDayLocked(draft.Date, draft.ChannelID) {
		return nil, s.Refuse(ErrWeekLocked)
	}

	var created *domain.Snapshot
	key := fmt.Sprintf("create:%d:%s:%s", draft.ChannelID, draft.Date.Format(domain.DateLayout), draft.For)
	err := s.mutate(ctx, key, "新建班次失败", "新建班次成功", func(ctx context.Context) error {
		snap, err := s.backend.AddShift(ctx, draft)
		created = snap
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Syncer) DeleteShift(ctx context.Context, snapshotID int64) error {
	if err := s.requireUnlocked(snapshotID); err != nil {
		return s.Refuse(err)
	}
	return s.mutate(ctx, fmt.Sprintf("delete:%d", snapshotID), "删除班次失败", "班次已删除", func(ctx context.Context) error {
		return s.backend.DeleteShift(ctx, snapshotID)
	})
}

func (s *Syncer) CreateWeekRange(ctx context.Context, week domain.WeekRange) error {
	if week.To.Before(week.From) {
		return s.Refuse(ErrInvalidWeekRange)
	}
	return s.mutate(ctx, weekKey("create-week", week), "创建排班失败", "已根据模板创建排班", func(ctx context.Context) error {
		return s.backend.CreateWeekRange(ctx, week)
	})
}

// SyncFromTemplates 按当前模板补齐缺失的班次，不会重复创建
func (s *Syncer) SyncFromTemplates(ctx context.Context, week domain.WeekRange) error {
	if week.To.Before(week.From) {
		return s.Refuse(ErrInvalidWeekRange)
	}
	if s.weekHasFixedDay(week) {
		return s.Refuse(ErrWeekLocked)
	}
	return s.mutate(ctx, weekKey("sync", week), "同步模板失败", "已同步模板", func(ctx context.Context) error {
		return s.backend.SyncWeek(ctx, week)
	})
}

// LockWeek 锁定之后分配类操作全部不可用，填写数据不受影响
func (s *Syncer) LockWeek(ctx context.Context, week domain.WeekRange) error {
	if week.To.Before(week.From) {
		return s.Refuse(ErrInvalidWeekRange)
	}
	return s.mutate(ctx, weekKey("fix", week), "锁定排班失败", "排班已锁定", func(ctx context.Context) error {
		return s.backend.FixWeek(ctx, week)
	})
}

func (s *Syncer) weekHasFixedDay(week domain.WeekRange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.livestreams {
		if ls.ChannelID == week.ChannelID && week.Contains(ls.Date) && ls.Fixed {
			return true
		}
	}
	return false
}

// UpdateAlt 是管理员直接设置替班人的入口，只在锁定后可用
func (s *Syncer) UpdateAlt(ctx context.Context, snapshotID int64, update domain.AltUpdate) error {
	if update.Alt != nil && !update.Alt.Valid() {
		return s.Refuse(domain.ErrInvalidAltAssignee)
	}
	if !s.IsLocked(snapshotID) {
		if _, _, ok := s.Snapshot(snapshotID); !ok {
			return s.Refuse(ErrSnapshotNotFound)
		}
		return s.Refuse(ErrWeekNotLocked)
	}
	return s.mutate(ctx, fmt.Sprintf("alt:%d", snapshotID), "设置替班失败", "替班已更新", func(ctx context.Context) error {
		return s.backend.UpdateAlt(ctx, snapshotID, update)
	})
}

// UpdateReport 填写直播数据，锁定后仍然可用
func (s *Syncer) UpdateReport(ctx context.Context, snapshotID int64, report domain.Report) error {
	if _, _, ok := s.Snapshot(snapshotID); !ok {
		return s.Refuse(ErrSnapshotNotFound)
	}
	return s.mutate(ctx, fmt.Sprintf("report:%d", snapshotID), "保存数据失败", "数据已保存", func(ctx context.Context) error {
		return s.backend.UpdateReport(ctx, snapshotID, report)
	})
}

// AltRequestFor 查询班次当前的替班申请，没有时返回 nil
func (s *Syncer) AltRequestFor(ctx context.Context, livestreamID, snapshotID int64) (*domain.AltRequest, error) {
	req, err := s.backend.GetAltRequestBySnapshot(ctx, livestreamID, snapshotID)
	if err != nil {
		s.fail("获取替班申请失败", err)
		return nil, err
	}
	return req, nil
}

// AltRequest 按 ID 查询替班申请
func (s *Syncer) AltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	req, err := s.backend.GetAltRequest(ctx, requestID)
	if err != nil {
		s.fail("获取替班申请失败", err)
		return nil, err
	}
	return req, nil
}

func (s *Syncer) CreateAltRequest(ctx context.Context, livestreamID, snapshotID int64, note string) (*domain.AltRequest, error) {
	var created *domain.AltRequest
	key := fmt.Sprintf("alt-request:%d:%d", livestreamID, snapshotID)
	err := s.mutate(ctx, key, "提交替班申请失败", "替班申请已提交", func(ctx context.Context) error {
		req, err := s.backend.CreateAltRequest(ctx, livestreamID, snapshotID, note)
		created = req
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Syncer) AcceptAltRequest(ctx context.Context, requestID int64, alt domain.AltAssignee) (*domain.AltRequest, error) {
	var accepted *domain.AltRequest
	err := s.mutate(ctx, fmt.Sprintf("alt-request:%d", requestID), "同意替班申请失败", "已同意替班申请", func(ctx context.Context) error {
		req, err := s.backend.AcceptAltRequest(ctx, requestID, alt)
		accepted = req
		return err
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

func (s *Syncer) RejectAltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	var rejected *domain.AltRequest
	err := s.mutate(ctx, fmt.Sprintf("alt-request:%d", requestID), "拒绝替班申请失败", "已拒绝替班申请", func(ctx context.Context) error {
		req, err := s.backend.RejectAltRequest(ctx, requestID)
		rejected = req
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *Syncer) DeleteAltRequest(ctx context.Context, requestID int64) error {
	return s.mutate(ctx, fmt.Sprintf("alt-request:%d", requestID), "删除替班申请失败", "替班申请已删除", func(ctx context.Context) error {
		return s.backend.DeleteAltRequest(ctx, requestID)
	})
}

func weekKey(op string, week domain.WeekRange) string {
	return fmt.Sprintf("%s:%d:%s:%s", op, week.ChannelID, week.From.Format(domain.DateLayout), week.To.Format(domain.DateLayout))
}
