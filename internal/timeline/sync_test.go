package timeline

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

var _ Commands = (*schedule.Syncer)(nil)

type syncFixture struct {
	ctrl    *Controller
	surface *fakeSurface
	backend *schedtest.Backend
	syncer  *schedule.Syncer
	week    domain.WeekRange
	shiftID int64
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	backend := schedtest.New()
	ls := backend.Seed(&domain.Livestream{
		ChannelID: 1,
		Date:      monday,
		Snapshots: []*domain.Snapshot{{
			Period: domain.PeriodData{StartTime: domain.TimeOfDay{Hour: 9}, EndTime: domain.TimeOfDay{Hour: 10}, For: domain.RoleHost},
		}},
	})

	week := domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: 1}
	syncer := schedule.NewSyncer(backend, schedule.NotifierFunc(func(schedule.Severity, string) {}), nil)
	require.NoError(t, syncer.Load(context.Background(), week))

	viewport := NewViewport(600, DefaultZoomLimits())
	viewport.PxPerMinute = 1
	surface := &fakeSurface{}
	opts := DefaultOptions()
	opts.Defer = func(f func()) { f() }

	return &syncFixture{
		ctrl:    NewController(viewport, surface, syncer, opts),
		surface: surface,
		backend: backend,
		syncer:  syncer,
		week:    week,
		shiftID: ls.Snapshots[0].ID,
	}
}

func (f *syncFixture) shift(t *testing.T) *domain.Snapshot {
	t.Helper()
	snap, _, ok := f.syncer.Snapshot(f.shiftID)
	require.True(t, ok)
	return snap
}

func TestResizeThroughSyncerCommitsAndRefetches(t *testing.T) {
	f := newSyncFixture(t)

	require.NoError(t, f.ctrl.BeginResize(f.shift(t), EdgeBottom))
	f.surface.onMove(623)
	f.surface.onUp()

	assert.Equal(t, []string{"list", "time", "list"}, f.backend.Calls())
	assert.Equal(t, domain.TimeOfDay{Hour: 10, Minute: 25}, f.shift(t).Period.EndTime)
	assert.IsType(t, Idle{}, f.ctrl.State())
}

func TestResizeThroughSyncerRefusedAfterLock(t *testing.T) {
	f := newSyncFixture(t)
	require.NoError(t, f.syncer.LockWeek(context.Background(), f.week))
	require.True(t, f.syncer.IsLocked(f.shiftID))

	calls := len(f.backend.Calls())
	assert.ErrorIs(t, f.ctrl.BeginResize(f.shift(t), EdgeTop), ErrResizeDisabled)
	assert.Zero(t, f.surface.listens)
	assert.IsType(t, Idle{}, f.ctrl.State())
	assert.Len(t, f.backend.Calls(), calls, "锁定后不应发出任何请求")
}
