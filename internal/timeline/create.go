package timeline

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// Column 是时间轴上的一列（某频道某天的某个岗位）
type Column struct {
	Date       time.Time
	ChannelID  int64
	Role       domain.Role
	Locked     bool
	EditHidden bool
}

// CreatableSpan 根据点击位置计算新班次的起止：起点对齐步长，默认时长不超过当天结束
func (c *Controller) CreatableSpan(contentY float64) Span {
	raw := PixelOffsetToMinutes(contentY, c.opts.OriginMinute, c.viewport.PxPerMinute)
	start := clampInt(Snap(raw, c.opts.SnapStep), DayStart, DayEnd-c.opts.MinDuration)
	end := min(start+c.opts.CreateDuration, DayEnd)
	return Span{Start: start, End: end}
}

// ClickToCreate 在空白处点击时新建班次。周已锁定或隐藏编辑按钮时不可用
func (c *Controller) ClickToCreate(ctx context.Context, col Column, contentY float64) (*domain.Snapshot, error) {
	if col.Locked || col.EditHidden {
		return nil, ErrCreateDisabled
	}
	if _, ok := c.State().(Resizing); ok {
		return nil, ErrDragInProgress
	}

	span := c.CreatableSpan(contentY)
	draft := domain.ShiftDraft{
		Date:      col.Date,
		ChannelID: col.ChannelID,
		StartTime: span.StartTime(),
		EndTime:   span.EndTime(),
		For:       col.Role,
	}

	return c.commands.CreateShift(ctx, draft)
}
