package altrequest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/schedule"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/schedule/schedtest"
)

const (
	hostX  int64 = 42
	hostY  int64 = 43
	leader int64 = 2
)

type session struct {
	actor domain.Actor
}

func (s *session) CurrentActor() domain.Actor { return s.actor }

func (s *session) as(id int64, roles ...domain.Role) {
	s.actor = domain.Actor{ID: id, Roles: roles}
}

type fixture struct {
	session    *session
	backend    *schedtest.Backend
	syncer     *schedule.Syncer
	workflow   *Workflow
	snapshotID int64
}

func newFixture(t *testing.T, fixed bool) *fixture {
	t.Helper()

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	assignee := hostX

	sess := &session{}
	backend := schedtest.New()
	backend.Identity = sess
	ls := backend.Seed(&domain.Livestream{
		ChannelID: 1,
		Date:      monday,
		Fixed:     fixed,
		Snapshots: []*domain.Snapshot{{
			Period:   domain.PeriodData{StartTime: domain.TimeOfDay{Hour: 19}, EndTime: domain.TimeOfDay{Hour: 21}, For: domain.RoleHost},
			Assignee: &assignee,
		}},
	})

	syncer := schedule.NewSyncer(backend, schedule.NotifierFunc(func(schedule.Severity, string) {}), nil)
	require.NoError(t, syncer.Load(context.Background(), domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: 1}))

	sess.as(hostX, domain.RoleHost)
	return &fixture{
		session:    sess,
		backend:    backend,
		syncer:     syncer,
		workflow:   NewWorkflow(sess, syncer),
		snapshotID: ls.Snapshots[0].ID,
	}
}

func (f *fixture) countCalls(name string) int {
	n := 0
	for _, c := range f.backend.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func TestAltRequestLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	assert.True(t, f.workflow.Visibility(f.snapshotID).CreateRequest)

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)
	assert.Equal(t, domain.AltRequestPending, req.Status)
	assert.Equal(t, hostX, req.CreatedBy)
	assert.Equal(t, "sick", req.AltNote)

	v := f.workflow.Visibility(f.snapshotID)
	assert.False(t, v.CreateRequest, "待处理期间不再提供申请入口")
	assert.True(t, v.ViewRequest)
	assert.False(t, v.ActOnRequest)

	_, err = f.workflow.CreateRequest(ctx, f.snapshotID, "again")
	assert.ErrorIs(t, err, ErrRequestOutstanding)
	assert.Equal(t, 1, f.countCalls("alt-request"))

	f.session.as(leader, domain.RoleLeader)
	assert.True(t, f.workflow.Visibility(f.snapshotID).ActOnRequest)

	accepted, err := f.workflow.Accept(ctx, req.ID, domain.EmployeeAlt(hostY))
	require.NoError(t, err)
	assert.Equal(t, domain.AltRequestAccepted, accepted.Status)
	require.NotNil(t, accepted.DecidedBy)
	assert.Equal(t, leader, *accepted.DecidedBy)

	snap, _, ok := f.syncer.Snapshot(f.snapshotID)
	require.True(t, ok)
	require.NotNil(t, snap.Alt)
	assert.True(t, snap.Alt.Is(hostY))

	f.session.as(hostX, domain.RoleHost)
	v = f.workflow.Visibility(f.snapshotID)
	assert.False(t, v.CreateRequest)
	assert.True(t, v.ViewRequest, "申请人可以查看已处理的申请")
	assert.False(t, v.ActOnRequest)

	_, err = f.workflow.CreateRequest(ctx, f.snapshotID, "again")
	assert.ErrorIs(t, err, ErrAltAlreadySet)
}

func TestRejectedRequestCanBeRequestedAgain(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "家里有事")
	require.NoError(t, err)

	f.session.as(leader, domain.RoleAdmin)
	rejected, err := f.workflow.Reject(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AltRequestRejected, rejected.Status)

	_, err = f.workflow.Reject(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = f.workflow.Accept(ctx, req.ID, domain.EmployeeAlt(hostY))
	assert.ErrorIs(t, err, ErrNotPending)

	snap, _, _ := f.syncer.Snapshot(f.snapshotID)
	assert.Nil(t, snap.Alt)

	f.session.as(hostX, domain.RoleHost)
	assert.True(t, f.workflow.Visibility(f.snapshotID).CreateRequest)

	again, err := f.workflow.CreateRequest(ctx, f.snapshotID, "还是有事")
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
	assert.Equal(t, domain.AltRequestPending, again.Status)
}

func TestCreateRequestPreconditions(t *testing.T) {
	t.Run("未锁定", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.workflow.CreateRequest(context.Background(), f.snapshotID, "sick")
		assert.ErrorIs(t, err, ErrNotLocked)
		assert.False(t, f.workflow.Visibility(f.snapshotID).CreateRequest)
	})

	t.Run("不是负责人", func(t *testing.T) {
		f := newFixture(t, true)
		f.session.as(hostY, domain.RoleHost)
		_, err := f.workflow.CreateRequest(context.Background(), f.snapshotID, "sick")
		assert.ErrorIs(t, err, ErrNotAssignee)
		assert.Zero(t, f.countCalls("alt-request"))
	})

	t.Run("已有替班人", func(t *testing.T) {
		f := newFixture(t, true)
		f.session.as(leader, domain.RoleLeader)
		alt := domain.ExternalAlt("外部主播")
		require.NoError(t, f.workflow.OverrideAlt(context.Background(), f.snapshotID, domain.AltUpdate{Alt: &alt}))

		f.session.as(hostX, domain.RoleHost)
		_, err := f.workflow.CreateRequest(context.Background(), f.snapshotID, "sick")
		assert.ErrorIs(t, err, ErrAltAlreadySet)
	})

	t.Run("班次不存在", func(t *testing.T) {
		f := newFixture(t, true)
		_, err := f.workflow.CreateRequest(context.Background(), 999999, "sick")
		assert.ErrorIs(t, err, schedule.ErrSnapshotNotFound)
	})
}

func TestAcceptValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	_, err = f.workflow.Accept(ctx, req.ID, domain.EmployeeAlt(hostY))
	assert.ErrorIs(t, err, ErrForbidden, "负责人不能处理自己的申请")

	f.session.as(leader, domain.RoleLeader)
	_, err = f.workflow.Accept(ctx, req.ID, domain.AltAssignee{})
	assert.ErrorIs(t, err, ErrAltRequired)
	_, err = f.workflow.Accept(ctx, req.ID, domain.EmployeeAlt(hostX))
	assert.ErrorIs(t, err, ErrAltIsAssignee)
	_, err = f.workflow.Accept(ctx, 424242, domain.EmployeeAlt(hostY))
	assert.ErrorIs(t, err, schedtest.ErrNotFound)

	assert.Zero(t, f.countCalls("accept"))

	accepted, err := f.workflow.Accept(ctx, req.ID, domain.ExternalAlt("王五"))
	require.NoError(t, err)
	name, ok := accepted.Alt.ExternalName()
	assert.True(t, ok)
	assert.Equal(t, "王五", name)
}

func TestDecisionsFetchRequestsNotLoadedYet(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	// 组长在另一个会话中处理申请，没有先加载班次
	f.session.as(leader, domain.RoleLeader)
	fresh := NewWorkflow(f.session, f.syncer)
	assert.Nil(t, fresh.Request(f.snapshotID))

	rejected, err := fresh.Reject(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AltRequestRejected, rejected.Status)
	assert.Equal(t, 1, f.countCalls("get-alt-request-by-id"))

	f.session.as(hostX, domain.RoleHost)
	second, err := f.workflow.CreateRequest(ctx, f.snapshotID, "still sick")
	require.NoError(t, err)

	f.session.as(leader, domain.RoleLeader)
	other := NewWorkflow(f.session, f.syncer)
	accepted, err := other.Accept(ctx, second.ID, domain.EmployeeAlt(hostY))
	require.NoError(t, err)
	assert.Equal(t, domain.AltRequestAccepted, accepted.Status)
	assert.Equal(t, accepted, other.Request(f.snapshotID))

	_, err = other.Accept(ctx, second.ID, domain.EmployeeAlt(hostY))
	assert.ErrorIs(t, err, ErrNotPending, "已缓存的申请不再重复查询")
	assert.Equal(t, 2, f.countCalls("get-alt-request-by-id"))
}

func TestWithdrawFetchesRequestNotLoadedYet(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	fresh := NewWorkflow(f.session, f.syncer)
	require.NoError(t, fresh.Delete(ctx, req.ID))
	assert.Empty(t, f.backend.Requests())
}

func TestOverrideResolvesPendingRequest(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	f.session.as(leader, domain.RoleLeader)
	alt := domain.EmployeeAlt(hostY)
	require.NoError(t, f.workflow.OverrideAlt(ctx, f.snapshotID, domain.AltUpdate{Alt: &alt, Note: "组长安排"}))

	current := f.workflow.Request(f.snapshotID)
	require.NotNil(t, current)
	assert.Equal(t, req.ID, current.ID)
	assert.Equal(t, domain.AltRequestAccepted, current.Status)
	assert.True(t, current.Alt.Is(hostY))

	snap, _, _ := f.syncer.Snapshot(f.snapshotID)
	assert.Equal(t, "组长安排", snap.AltNote)
}

func TestClearingAltRejectsPendingRequest(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	f.session.as(leader, domain.RoleLeader)
	require.NoError(t, f.workflow.OverrideAlt(ctx, f.snapshotID, domain.AltUpdate{}))
	assert.Equal(t, domain.AltRequestRejected, f.workflow.Request(f.snapshotID).Status)

	f.session.as(hostX, domain.RoleHost)
	assert.ErrorIs(t, f.workflow.OverrideAlt(ctx, f.snapshotID, domain.AltUpdate{}), ErrForbidden)
}

func TestRequesterCanWithdrawPendingRequest(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req, err := f.workflow.CreateRequest(ctx, f.snapshotID, "sick")
	require.NoError(t, err)

	f.session.as(hostY, domain.RoleHost)
	assert.ErrorIs(t, f.workflow.Delete(ctx, req.ID), ErrForbidden)
	assert.False(t, f.workflow.Visibility(f.snapshotID).ViewRequest)

	f.session.as(hostX, domain.RoleHost)
	require.NoError(t, f.workflow.Delete(ctx, req.ID))
	assert.Nil(t, f.workflow.Request(f.snapshotID))
	assert.Empty(t, f.backend.Requests())
	assert.True(t, f.workflow.Visibility(f.snapshotID).CreateRequest)
}

func TestCandidatesExcludeAssignee(t *testing.T) {
	assignee := hostX
	snap := &domain.Snapshot{Period: domain.PeriodData{For: domain.RoleHost}, Assignee: &assignee}
	employees := []*domain.User{
		{ID: hostX, IsActive: true, Roles: []domain.Role{domain.RoleHost}},
		{ID: hostY, IsActive: true, Roles: []domain.Role{domain.RoleHost}},
		{ID: 50, IsActive: false, Roles: []domain.Role{domain.RoleHost}},
		{ID: 51, IsActive: true, Roles: []domain.Role{domain.RoleAssistant}},
	}

	got := Candidates(employees, snap)
	require.Len(t, got, 1)
	assert.Equal(t, hostY, got[0].ID)
}
