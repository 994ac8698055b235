// Package schedtest 提供一个内存中的排班服务端，规则与 HTTP 服务端一致，供测试使用
package schedtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("记录不存在")
	ErrForbidden = errors.New("没有权限")
	ErrConflict  = errors.New("状态冲突")
)

// Backend 实现 schedule.Backend。Identity 为空时所有调用都视为管理员
type Backend struct {
	Identity domain.Identity
	Periods  []*domain.Period
	// FailNext 不为空时下一次调用直接返回该错误
	FailNext error

	mu          sync.Mutex
	nextID      int64
	livestreams []*domain.Livestream
	requests    []*domain.AltRequest
	calls       []string
}

func New(periods ...*domain.Period) *Backend {
	return &Backend{Periods: periods, nextID: 1000}
}

func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Seed 直接写入一天的直播数据，返回写入后的副本
func (b *Backend) Seed(ls *domain.Livestream) *domain.Livestream {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ls.ID == 0 {
		ls.ID = b.id()
	}
	for _, s := range ls.Snapshots {
		if s.ID == 0 {
			s.ID = b.id()
		}
		s.LivestreamID = ls.ID
		s.Date = ls.Date
		s.Period.ChannelID = ls.ChannelID
	}
	b.livestreams = append(b.livestreams, ls)
	return cloneLivestream(ls)
}

func (b *Backend) Requests() []domain.AltRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.AltRequest, 0, len(b.requests))
	for _, r := range b.requests {
		out = append(out, *r)
	}
	return out
}

func (b *Backend) enter(call string) error {
	b.calls = append(b.calls, call)
	if b.FailNext != nil {
		err := b.FailNext
		b.FailNext = nil
		return err
	}
	return nil
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) actor() domain.Actor {
	if b.Identity == nil {
		return domain.Actor{ID: 1, Roles: []domain.Role{domain.RoleAdmin}}
	}
	return b.Identity.CurrentActor()
}

func (b *Backend) find(snapshotID int64) (*domain.Snapshot, *domain.Livestream) {
	for _, ls := range b.livestreams {
		if s := ls.Snapshot(snapshotID); s != nil {
			return s, ls
		}
	}
	return nil, nil
}

func (b *Backend) day(date time.Time, channelID int64) *domain.Livestream {
	y, m, d := date.Date()
	for _, ls := range b.livestreams {
		ly, lm, ld := ls.Date.Date()
		if ls.ChannelID == channelID && ly == y && lm == m && ld == d {
			return ls
		}
	}
	ls := &domain.Livestream{
		ID:        b.id(),
		ChannelID: channelID,
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
	b.livestreams = append(b.livestreams, ls)
	return ls
}

func (b *Backend) pending(livestreamID, snapshotID int64) *domain.AltRequest {
	for _, r := range b.requests {
		if r.LivestreamID == livestreamID && r.SnapshotID == snapshotID && r.Status == domain.AltRequestPending {
			return r
		}
	}
	return nil
}

func (b *Backend) ListLivestreams(_ context.Context, week domain.WeekRange) ([]*domain.Livestream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("list"); err != nil {
		return nil, err
	}

	out := []*domain.Livestream{}
	for _, ls := range b.livestreams {
		if ls.ChannelID == week.ChannelID && week.Contains(ls.Date) {
			out = append(out, cloneLivestream(ls))
		}
	}
	return out, nil
}

func (b *Backend) CreateWeekRange(_ context.Context, week domain.WeekRange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("create-week"); err != nil {
		return err
	}
	b.fillFromTemplates(week)
	return nil
}

func (b *Backend) SyncWeek(_ context.Context, week domain.WeekRange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("sync"); err != nil {
		return err
	}
	for _, d := range week.Days() {
		if b.day(d, week.ChannelID).Fixed {
			return ErrConflict
		}
	}
	b.fillFromTemplates(week)
	return nil
}

func (b *Backend) fillFromTemplates(week domain.WeekRange) {
	for _, d := range week.Days() {
		ls := b.day(d, week.ChannelID)
		for _, p := range b.Periods {
			if p.ChannelID != week.ChannelID || hasPeriod(ls, p.ID) {
				continue
			}
			ls.Snapshots = append(ls.Snapshots, &domain.Snapshot{
				ID:           b.id(),
				LivestreamID: ls.ID,
				Date:         ls.Date,
				Period:       p.Data(),
			})
		}
	}
}

func hasPeriod(ls *domain.Livestream, periodID int64) bool {
	for _, s := range ls.Snapshots {
		if s.Period.PeriodID != nil && *s.Period.PeriodID == periodID {
			return true
		}
	}
	return false
}

func (b *Backend) FixWeek(_ context.Context, week domain.WeekRange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("fix"); err != nil {
		return err
	}
	if !b.actor().IsManager() {
		return ErrForbidden
	}
	for _, d := range week.Days() {
		b.day(d, week.ChannelID).Fixed = true
	}
	return nil
}

func (b *Backend) AddShift(_ context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("add"); err != nil {
		return nil, err
	}
	if !b.actor().IsManager() {
		return nil, ErrForbidden
	}

	ls := b.day(draft.Date, draft.ChannelID)
	if ls.Fixed {
		return nil, ErrConflict
	}
	s := &domain.Snapshot{
		ID:           b.id(),
		LivestreamID: ls.ID,
		Date:         ls.Date,
		Period: domain.PeriodData{
			PeriodID:  draft.PeriodID,
			ChannelID: draft.ChannelID,
			StartTime: draft.StartTime,
			EndTime:   draft.EndTime,
			For:       draft.For,
		},
		Assignee: draft.Assignee,
		Goal:     draft.Goal,
	}
	ls.Snapshots = append(ls.Snapshots, s)
	return cloneSnapshot(s), nil
}

func (b *Backend) snapshotFor(call string, id int64) (*domain.Snapshot, *domain.Livestream, error) {
	if err := b.enter(call); err != nil {
		return nil, nil, err
	}
	s, ls := b.find(id)
	if s == nil {
		return nil, nil, ErrNotFound
	}
	return s, ls, nil
}

func (b *Backend) UpdateAssignee(_ context.Context, snapshotID int64, assignee *int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ls, err := b.snapshotFor("assignee", snapshotID)
	if err != nil {
		return err
	}
	if !b.actor().IsManager() {
		return ErrForbidden
	}
	if ls.Fixed {
		return ErrConflict
	}
	s.Assignee = assignee
	return nil
}

func (b *Backend) UpdateShiftTime(_ context.Context, snapshotID int64, start, end domain.TimeOfDay) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ls, err := b.snapshotFor("time", snapshotID)
	if err != nil {
		return err
	}
	if ls.Fixed || !start.Before(end) {
		return ErrConflict
	}
	s.Period.StartTime = start
	s.Period.EndTime = end
	return nil
}

func (b *Backend) DeleteShift(_ context.Context, snapshotID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ls, err := b.snapshotFor("delete", snapshotID)
	if err != nil {
		return err
	}
	if ls.Fixed {
		return ErrConflict
	}
	for i, s := range ls.Snapshots {
		if s.ID == snapshotID {
			ls.Snapshots = append(ls.Snapshots[:i], ls.Snapshots[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateAlt 直接设置替班人，同时结束该班次待处理的申请
func (b *Backend) UpdateAlt(_ context.Context, snapshotID int64, update domain.AltUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ls, err := b.snapshotFor("alt", snapshotID)
	if err != nil {
		return err
	}
	actor := b.actor()
	if !actor.IsManager() {
		return ErrForbidden
	}
	if !ls.Fixed {
		return ErrConflict
	}

	s.Alt = update.Alt
	s.AltNote = update.Note
	if r := b.pending(ls.ID, s.ID); r != nil {
		b.decide(r, actor.ID, update.Alt)
	}
	return nil
}

func (b *Backend) decide(r *domain.AltRequest, by int64, alt *domain.AltAssignee) {
	now := time.Now()
	r.DecidedBy = &by
	r.DecidedAt = &now
	if alt != nil {
		a := *alt
		r.Alt = &a
		r.Status = domain.AltRequestAccepted
	} else {
		r.Status = domain.AltRequestRejected
	}
}

func (b *Backend) UpdateReport(_ context.Context, snapshotID int64, report domain.Report) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, _, err := b.snapshotFor("report", snapshotID)
	if err != nil {
		return err
	}
	s.Report = report
	return nil
}

func (b *Backend) CreateAltRequest(_ context.Context, livestreamID, snapshotID int64, note string) (*domain.AltRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ls, err := b.snapshotFor("alt-request", snapshotID)
	if err != nil {
		return nil, err
	}
	if ls.ID != livestreamID {
		return nil, ErrNotFound
	}
	actor := b.actor()
	if !actor.Is(s.Assignee) {
		return nil, ErrForbidden
	}
	if !ls.Fixed || s.Alt != nil || b.pending(ls.ID, s.ID) != nil {
		return nil, ErrConflict
	}

	r := &domain.AltRequest{
		ID:           b.id(),
		LivestreamID: ls.ID,
		SnapshotID:   s.ID,
		CreatedBy:    actor.ID,
		AltNote:      note,
		Status:       domain.AltRequestPending,
		CreatedAt:    time.Now(),
	}
	b.requests = append(b.requests, r)
	out := *r
	return &out, nil
}

func (b *Backend) GetAltRequestBySnapshot(_ context.Context, livestreamID, snapshotID int64) (*domain.AltRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("get-alt-request"); err != nil {
		return nil, err
	}

	for i := len(b.requests) - 1; i >= 0; i-- {
		r := b.requests[i]
		if r.LivestreamID == livestreamID && r.SnapshotID == snapshotID {
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

func (b *Backend) GetAltRequest(_ context.Context, requestID int64) (*domain.AltRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("get-alt-request-by-id"); err != nil {
		return nil, err
	}

	r := b.request(requestID)
	if r == nil {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (b *Backend) request(id int64) *domain.AltRequest {
	for _, r := range b.requests {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (b *Backend) AcceptAltRequest(_ context.Context, requestID int64, alt domain.AltAssignee) (*domain.AltRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("accept"); err != nil {
		return nil, err
	}
	actor := b.actor()
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	r := b.request(requestID)
	if r == nil {
		return nil, ErrNotFound
	}
	s, _ := b.find(r.SnapshotID)
	if s == nil {
		return nil, ErrNotFound
	}
	if r.Status != domain.AltRequestPending || !alt.Valid() {
		return nil, ErrConflict
	}
	if s.Assignee != nil && alt.Is(*s.Assignee) {
		return nil, ErrConflict
	}

	b.decide(r, actor.ID, &alt)
	s.Alt = &alt
	s.AltNote = r.AltNote
	out := *r
	return &out, nil
}

func (b *Backend) RejectAltRequest(_ context.Context, requestID int64) (*domain.AltRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("reject"); err != nil {
		return nil, err
	}
	actor := b.actor()
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	r := b.request(requestID)
	if r == nil {
		return nil, ErrNotFound
	}
	if r.Status != domain.AltRequestPending {
		return nil, ErrConflict
	}

	b.decide(r, actor.ID, nil)
	out := *r
	return &out, nil
}

func (b *Backend) DeleteAltRequest(_ context.Context, requestID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("delete-alt-request"); err != nil {
		return err
	}
	for i, r := range b.requests {
		if r.ID != requestID {
			continue
		}
		actor := b.actor()
		if !actor.IsManager() && !(actor.ID == r.CreatedBy && r.Status == domain.AltRequestPending) {
			return ErrForbidden
		}
		b.requests = append(b.requests[:i], b.requests[i+1:]...)
		return nil
	}
	return ErrNotFound
}

func cloneLivestream(ls *domain.Livestream) *domain.Livestream {
	out := *ls
	out.Snapshots = make([]*domain.Snapshot, 0, len(ls.Snapshots))
	for _, s := range ls.Snapshots {
		out.Snapshots = append(out.Snapshots, cloneSnapshot(s))
	}
	return &out
}

func cloneSnapshot(s *domain.Snapshot) *domain.Snapshot {
	out := *s
	if s.Assignee != nil {
		v := *s.Assignee
		out.Assignee = &v
	}
	if s.Alt != nil {
		a := *s.Alt
		out.Alt = &a
	}
	return &out
}
