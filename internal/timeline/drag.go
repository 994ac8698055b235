package timeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var (
	ErrDragInProgress = errors.New("已有班次正在拖拽")
	ErrInvalidEdge    = errors.New("无效的拖拽边")
	ErrCreateDisabled = errors.New("当前视图不允许新建班次")
	ErrResizeDisabled = errors.New("该周排班已锁定，不能调整班次时间")
)

type Edge uint8

const (
	EdgeTop Edge = iota + 1
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	}
	return "unknown"
}

// Span 是以分钟表示的班次起止
type Span struct {
	Start int
	End   int
}

func (s Span) StartTime() domain.TimeOfDay { return MinutesToTime(s.Start) }
func (s Span) EndTime() domain.TimeOfDay   { return MinutesToTime(s.End) }

// DragState 是拖拽状态机的取值，只能是 Idle 或 Resizing
type DragState interface {
	dragState()
}

type Idle struct{}

// Resizing 的 Preview 在第一次指针移动之前为 nil
type Resizing struct {
	GestureID  uuid.UUID
	Edge       Edge
	SnapshotID int64
	Baseline   Span
	Preview    *Span
}

func (Idle) dragState()     {}
func (Resizing) dragState() {}

// Surface 是整个交互区域。拖拽开始时在其上注册监听，返回的 release 用于注销
type Surface interface {
	Listen(onMove func(contentY float64), onUp func()) (release func())
}

// Commands 是控制器需要的同步层命令，由 schedule.Syncer 实现
type Commands interface {
	IsLocked(snapshotID int64) bool
	ResizeTime(ctx context.Context, snapshotID int64, start, end domain.TimeOfDay) error
	CreateShift(ctx context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error)
}

type Options struct {
	SnapStep       int
	MinDuration    int
	CreateDuration int
	OriginMinute   int
	CommitTimeout  time.Duration

	// Defer 用于“零延迟”执行，默认使用 time.AfterFunc(0, f)
	Defer func(f func())
}

func DefaultOptions() Options {
	return Options{
		SnapStep:       DefaultSnapStep,
		MinDuration:    DefaultMinDuration,
		CreateDuration: DefaultCreateDuration,
		OriginMinute:   DayStart,
		CommitTimeout:  15 * time.Second,
	}
}

// Controller 持有唯一的拖拽状态槽，同一时刻最多一个班次处于拖拽中
type Controller struct {
	opts     Options
	viewport *Viewport
	surface  Surface
	commands Commands

	mu         sync.Mutex
	state      DragState
	release    func()
	suppressed map[int64]struct{}
}

func NewController(viewport *Viewport, surface Surface, commands Commands, opts Options) *Controller {
	defaults := DefaultOptions()
	if opts.SnapStep <= 0 {
		opts.SnapStep = defaults.SnapStep
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = defaults.MinDuration
	}
	if opts.CreateDuration <= 0 {
		opts.CreateDuration = defaults.CreateDuration
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaults.CommitTimeout
	}
	if opts.Defer == nil {
		opts.Defer = func(f func()) { time.AfterFunc(0, f) }
	}

	return &Controller{
		opts:       opts,
		viewport:   viewport,
		surface:    surface,
		commands:   commands,
		state:      Idle{},
		suppressed: make(map[int64]struct{}),
	}
}

func (c *Controller) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginResize 记录班次当前的起止作为基线，并在整个交互区域上开始监听。
// 班次所在的周已锁定时直接拒绝，不进入拖拽状态
func (c *Controller) BeginResize(shift *domain.Snapshot, edge Edge) error {
	if edge != EdgeTop && edge != EdgeBottom {
		return ErrInvalidEdge
	}
	if c.commands.IsLocked(shift.ID) {
		return ErrResizeDisabled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Resizing); ok {
		return ErrDragInProgress
	}

	c.state = Resizing{
		GestureID:  uuid.New(),
		Edge:       edge,
		SnapshotID: shift.ID,
		Baseline:   Span{Start: shift.StartMinutes(), End: shift.EndMinutes()},
	}
	c.suppressed[shift.ID] = struct{}{}
	c.startGesture()

	return nil
}

func (c *Controller) startGesture() {
	if c.surface == nil {
		return
	}
	c.release = c.surface.Listen(c.PointerMove, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.CommitTimeout)
		defer cancel()
		// 失败已经由同步层通知，这里只记录
		if err := c.PointerUp(ctx); err != nil {
			slog.Debug("提交班次时间失败", "error", err)
		}
	})
}

// endGesture 在提交、取消和出错时都会执行，重复调用是安全的
func (c *Controller) endGesture() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

// PointerMove 只做纯计算，更新本地预览而不修改已确认的班次
func (c *Controller) PointerMove(contentY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rs, ok := c.state.(Resizing)
	if !ok {
		return
	}

	raw := PixelOffsetToMinutes(contentY, c.opts.OriginMinute, c.viewport.PxPerMinute)
	snapped := Snap(raw, c.opts.SnapStep)

	preview := rs.Baseline
	switch rs.Edge {
	case EdgeTop:
		preview.Start = clampInt(snapped, DayStart, rs.Baseline.End-c.opts.MinDuration)
	case EdgeBottom:
		preview.End = clampInt(snapped, rs.Baseline.Start+c.opts.MinDuration, DayEnd)
	}

	rs.Preview = &preview
	c.state = rs
}

// PointerUp 结束拖拽。只有存在预览时才会发出请求；无论结果如何预览都会被清除
func (c *Controller) PointerUp(ctx context.Context) error {
	c.mu.Lock()
	rs, ok := c.state.(Resizing)
	c.state = Idle{}
	c.endGesture()
	c.mu.Unlock()

	if !ok {
		return nil
	}
	defer c.restoreClick(rs.SnapshotID)

	if rs.Preview == nil || *rs.Preview == rs.Baseline {
		return nil
	}

	preview := *rs.Preview
	return c.commands.ResizeTime(ctx, rs.SnapshotID, preview.StartTime(), preview.EndTime())
}

// Cancel 放弃当前拖拽，不产生任何请求
func (c *Controller) Cancel() {
	c.mu.Lock()
	rs, ok := c.state.(Resizing)
	c.state = Idle{}
	c.endGesture()
	c.mu.Unlock()

	if ok {
		c.restoreClick(rs.SnapshotID)
	}
}

// restoreClick 延迟到下一个事件循环，避免抬起指针时产生的点击打开班次
func (c *Controller) restoreClick(snapshotID int64) {
	c.opts.Defer(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if rs, ok := c.state.(Resizing); ok && rs.SnapshotID == snapshotID {
			return
		}
		delete(c.suppressed, snapshotID)
	})
}

// ShouldOpenShift 判断点击班次是否应打开详情
func (c *Controller) ShouldOpenShift(snapshotID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, suppressed := c.suppressed[snapshotID]
	return !suppressed
}

// DisplaySpan 返回渲染用的起止：拖拽中的班次使用预览，其余使用已确认的数据
func (c *Controller) DisplaySpan(shift *domain.Snapshot) Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rs, ok := c.state.(Resizing); ok && rs.SnapshotID == shift.ID && rs.Preview != nil {
		return *rs.Preview
	}
	return Span{Start: shift.StartMinutes(), End: shift.EndMinutes()}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
