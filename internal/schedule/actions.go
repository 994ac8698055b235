package schedule

import (
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// ShiftActions 描述当前用户对某个班次可以执行的操作
type ShiftActions struct {
	Assign     bool
	Unassign   bool
	Resize     bool
	Delete     bool
	EditReport bool
	UpdateAlt  bool
}

// Actions 根据角色和锁定状态计算班次的可用操作。
// 锁定后分配类操作全部不可用，填写数据始终可用，直接设置替班只在锁定后开放给管理员和组长。
func (s *Syncer) Actions(actor domain.Actor, snapshotID int64) ShiftActions {
	s.mu.Lock()
	snap, ls, ok := s.findSnapshot(snapshotID)
	s.mu.Unlock()
	if !ok {
		return ShiftActions{}
	}

	manager := actor.IsManager()
	locked := ls.Fixed

	return ShiftActions{
		Assign:     manager && !locked,
		Unassign:   manager && !locked && snap.Assignee != nil,
		Resize:     manager && !locked,
		Delete:     manager && !locked,
		EditReport: manager || actor.Is(snap.Assignee),
		UpdateAlt:  manager && locked,
	}
}

// CanCreateOn 判断某频道某天是否允许点击新建班次
func (s *Syncer) CanCreateOn(actor domain.Actor, date time.Time, channelID int64) bool {
	return actor.IsManager() && !s.IsDayLocked(date, channelID)
}
