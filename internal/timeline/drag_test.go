package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

type fakeSurface struct {
	listens  int
	releases int
	onMove   func(float64)
	onUp     func()
}

func (s *fakeSurface) Listen(onMove func(float64), onUp func()) func() {
	s.listens++
	s.onMove = onMove
	s.onUp = onUp
	return func() {
		s.releases++
		s.onMove = nil
		s.onUp = nil
	}
}

func (s *fakeSurface) active() bool {
	return s.listens > s.releases
}

type resizeCall struct {
	snapshotID int64
	start, end domain.TimeOfDay
}

type fakeCommands struct {
	resizes   []resizeCall
	drafts    []domain.ShiftDraft
	resizeErr error
	locked    map[int64]bool
}

func (f *fakeCommands) IsLocked(id int64) bool {
	return f.locked[id]
}

func (f *fakeCommands) ResizeTime(_ context.Context, id int64, start, end domain.TimeOfDay) error {
	f.resizes = append(f.resizes, resizeCall{id, start, end})
	return f.resizeErr
}

func (f *fakeCommands) CreateShift(_ context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error) {
	f.drafts = append(f.drafts, draft)
	return &domain.Snapshot{ID: 99, Period: domain.PeriodData{StartTime: draft.StartTime, EndTime: draft.EndTime, For: draft.For}}, nil
}

type deferQueue struct {
	fns []func()
}

func (q *deferQueue) push(f func()) { q.fns = append(q.fns, f) }

func (q *deferQueue) flush() {
	fns := q.fns
	q.fns = nil
	for _, f := range fns {
		f()
	}
}

type controllerFixture struct {
	ctrl     *Controller
	surface  *fakeSurface
	commands *fakeCommands
	deferred *deferQueue
}

func newFixture(pxPerMinute float64) *controllerFixture {
	viewport := NewViewport(600, DefaultZoomLimits())
	viewport.PxPerMinute = pxPerMinute

	f := &controllerFixture{
		surface:  &fakeSurface{},
		commands: &fakeCommands{},
		deferred: &deferQueue{},
	}
	opts := DefaultOptions()
	opts.Defer = f.deferred.push
	f.ctrl = NewController(viewport, f.surface, f.commands, opts)
	return f
}

func shift(id int64, start, end domain.TimeOfDay) *domain.Snapshot {
	return &domain.Snapshot{ID: id, Period: domain.PeriodData{StartTime: start, EndTime: end, For: domain.RoleHost}}
}

func TestResizeBottomCommitsSnappedEnd(t *testing.T) {
	f := newFixture(1)
	s := shift(1, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))
	assert.True(t, f.surface.active(), "拖拽开始后应在交互区域上监听")

	// 10:23 对应的像素
	f.surface.onMove(623)

	rs, ok := f.ctrl.State().(Resizing)
	require.True(t, ok)
	require.NotNil(t, rs.Preview)
	assert.Equal(t, Span{Start: 540, End: 625}, *rs.Preview)
	assert.Equal(t, Span{Start: 540, End: 625}, f.ctrl.DisplaySpan(s))
	assert.Equal(t, domain.TimeOfDay{Hour: 10}, s.Period.EndTime, "拖拽中不修改已确认的班次")
	assert.Empty(t, f.commands.resizes, "指针移动不应发出请求")

	f.surface.onUp()

	require.Len(t, f.commands.resizes, 1)
	assert.Equal(t, resizeCall{1, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10, Minute: 25}}, f.commands.resizes[0])
	assert.IsType(t, Idle{}, f.ctrl.State())
	assert.False(t, f.surface.active())
	assert.Equal(t, 1, f.surface.releases)
}

func TestResizeTopIsClampedBeforeEnd(t *testing.T) {
	f := newFixture(2)
	s := shift(2, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeTop))

	// 拖过结束时间，应被限制为 end - 5
	f.ctrl.PointerMove(2 * 700)
	assert.Equal(t, Span{Start: 595, End: 600}, f.ctrl.DisplaySpan(s))

	// 拖到当天之前，应被限制为 0 点
	f.ctrl.PointerMove(-300)
	assert.Equal(t, Span{Start: 0, End: 600}, f.ctrl.DisplaySpan(s))

	require.NoError(t, f.ctrl.PointerUp(context.Background()))
	require.Len(t, f.commands.resizes, 1)
	assert.Equal(t, domain.TimeOfDay{}, f.commands.resizes[0].start)
}

func TestResizeBottomIsClampedAfterStartAndBeforeDayEnd(t *testing.T) {
	f := newFixture(1)
	s := shift(3, domain.TimeOfDay{Hour: 22}, domain.TimeOfDay{Hour: 23})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))

	f.ctrl.PointerMove(100)
	assert.Equal(t, Span{Start: 1320, End: 1325}, f.ctrl.DisplaySpan(s))

	// 吸附后的最大值是 23:55，而不是 23:59
	f.ctrl.PointerMove(5000)
	assert.Equal(t, Span{Start: 1320, End: 1435}, f.ctrl.DisplaySpan(s))

	require.NoError(t, f.ctrl.PointerUp(context.Background()))
	assert.Equal(t, domain.TimeOfDay{Hour: 23, Minute: 55}, f.commands.resizes[0].end)
}

func TestPointerUpWithoutMoveDoesNothing(t *testing.T) {
	f := newFixture(1)
	s := shift(4, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeTop))
	require.NoError(t, f.ctrl.PointerUp(context.Background()))

	assert.Empty(t, f.commands.resizes)
	assert.False(t, f.surface.active())

	// 未拖拽时抬起也不应有副作用
	require.NoError(t, f.ctrl.PointerUp(context.Background()))
	assert.Empty(t, f.commands.resizes)
}

func TestCancelReleasesListenersWithoutRequest(t *testing.T) {
	f := newFixture(1)
	s := shift(5, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))
	f.ctrl.PointerMove(700)
	f.ctrl.Cancel()

	assert.Empty(t, f.commands.resizes)
	assert.IsType(t, Idle{}, f.ctrl.State())
	assert.False(t, f.surface.active())
	assert.Equal(t, Span{Start: 540, End: 600}, f.ctrl.DisplaySpan(s))
}

func TestFailedCommitStillClearsPreview(t *testing.T) {
	f := newFixture(1)
	f.commands.resizeErr = errors.New("网络错误")
	s := shift(6, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))
	f.ctrl.PointerMove(660)

	err := f.ctrl.PointerUp(context.Background())
	require.Error(t, err)

	assert.IsType(t, Idle{}, f.ctrl.State())
	assert.False(t, f.surface.active())
	assert.Equal(t, Span{Start: 540, End: 600}, f.ctrl.DisplaySpan(s), "失败后显示最后确认的时间")
}

func TestOnlyOneDragAtATime(t *testing.T) {
	f := newFixture(1)
	a := shift(7, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})
	b := shift(8, domain.TimeOfDay{Hour: 11}, domain.TimeOfDay{Hour: 12})

	require.NoError(t, f.ctrl.BeginResize(a, EdgeBottom))
	assert.ErrorIs(t, f.ctrl.BeginResize(b, EdgeTop), ErrDragInProgress)
	assert.Equal(t, 1, f.surface.listens)

	assert.ErrorIs(t, f.ctrl.BeginResize(b, Edge(0)), ErrInvalidEdge)
}

func TestResizeRefusedOnLockedWeek(t *testing.T) {
	f := newFixture(1)
	s := shift(12, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})
	f.commands.locked = map[int64]bool{s.ID: true}

	assert.ErrorIs(t, f.ctrl.BeginResize(s, EdgeTop), ErrResizeDisabled)
	assert.IsType(t, Idle{}, f.ctrl.State())
	assert.Zero(t, f.surface.listens, "锁定时不应注册监听")
	assert.True(t, f.ctrl.ShouldOpenShift(s.ID))

	f.ctrl.PointerMove(500)
	assert.Equal(t, Span{Start: 540, End: 600}, f.ctrl.DisplaySpan(s))
	require.NoError(t, f.ctrl.PointerUp(context.Background()))
	assert.Empty(t, f.commands.resizes)
}

func TestClickIsSuppressedUntilNextTick(t *testing.T) {
	f := newFixture(1)
	s := shift(9, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})
	assert.True(t, f.ctrl.ShouldOpenShift(s.ID))

	require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))
	assert.False(t, f.ctrl.ShouldOpenShift(s.ID))

	f.ctrl.PointerMove(630)
	f.surface.onUp()
	assert.False(t, f.ctrl.ShouldOpenShift(s.ID), "抬起指针产生的点击不应打开班次")

	f.deferred.flush()
	assert.True(t, f.ctrl.ShouldOpenShift(s.ID))
}

func TestRepeatedGesturesDoNotLeakListeners(t *testing.T) {
	f := newFixture(1)
	s := shift(10, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	for i := 0; i < 5; i++ {
		require.NoError(t, f.ctrl.BeginResize(s, EdgeBottom))
		if i%2 == 0 {
			f.ctrl.Cancel()
		} else {
			f.surface.onMove(float64(620 + i*5))
			f.surface.onUp()
		}
		f.deferred.flush()
	}

	assert.Equal(t, 5, f.surface.listens)
	assert.Equal(t, 5, f.surface.releases)
}

func TestDefaultDeferRestoresClick(t *testing.T) {
	viewport := NewViewport(600, DefaultZoomLimits())
	ctrl := NewController(viewport, &fakeSurface{}, &fakeCommands{}, Options{})
	s := shift(11, domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10})

	require.NoError(t, ctrl.BeginResize(s, EdgeTop))
	ctrl.Cancel()

	assert.Eventually(t, func() bool { return ctrl.ShouldOpenShift(s.ID) }, time.Second, 5*time.Millisecond)
}
