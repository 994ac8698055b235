package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/repository"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/utils"
)

const (
	msgDayLocked     = "该日排班已锁定，不能修改"
	msgStaleSnapshot = "班次已被修改，请刷新后重试"
)

// checkAssignee 检查员工存在且能担任岗位，失败时已写入响应
func (h *Handler) checkAssignee(w http.ResponseWriter, r *http.Request, id int64, role domain.Role) bool {
	user, err := h.repository.GetUserByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "员工不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return false
	}
	if err := utils.ValidateAssignee(user, role); err != nil {
		h.errorResponse(w, r, err.Error())
		return false
	}
	return true
}

func (h *Handler) updateSnapshot(w http.ResponseWriter, r *http.Request, s *domain.Snapshot, msg string) {
	if err := h.repository.UpdateSnapshot(s); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, msgStaleSnapshot)
		default:
			h.databaseError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, msg, s)
}

// CreateSnapshot 新建班次。指定时段模板时时间和岗位以模板为准，否则使用请求中的时间
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
		ChannelID int64            `json:"channelID" validate:"required"`
		PeriodID  *int64           `json:"periodID"`
		StartTime domain.TimeOfDay `json:"startTime"`
		EndTime   domain.TimeOfDay `json:"endTime"`
		For       string           `json:"for" validate:"required,oneof=host assistant"`
		Assignee  *int64           `json:"assignee"`
		Goal      float64          `json:"goal" validate:"gte=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, _ := time.Parse(domain.DateLayout, req.Date)
	s := &domain.Snapshot{
		Date: date,
		Period: domain.PeriodData{
			ChannelID: req.ChannelID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			For:       domain.Role(req.For),
		},
		Assignee: req.Assignee,
		Goal:     req.Goal,
	}

	if req.PeriodID != nil {
		period, err := h.repository.GetPeriodByID(*req.PeriodID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "时段模板不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if period.ChannelID != req.ChannelID {
			h.errorResponse(w, r, "时段模板不属于该频道")
			return
		}
		s.Period = period.Data()
	}

	if err := utils.ValidateTimeRange(s.Period.StartTime, s.Period.EndTime); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if s.Assignee != nil && !h.checkAssignee(w, r, *s.Assignee, s.Period.For) {
		return
	}

	if err := h.repository.CreateSnapshot(s); err != nil {
		switch {
		case errors.Is(err, repository.ErrWeekLocked):
			h.errorResponse(w, r, msgDayLocked)
		default:
			h.databaseError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "班次创建成功", s)
}

// UpdateSnapshotAssignee 设置或清除负责人，assignee 为 null 表示清除
func (h *Handler) UpdateSnapshotAssignee(w http.ResponseWriter, r *http.Request) {
	s := r.Context().Value(SnapshotCtx).(*domain.Snapshot)
	ls := r.Context().Value(LivestreamCtx).(*domain.Livestream)

	var req struct {
		Assignee *int64 `json:"assignee"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if ls.Fixed {
		h.errorResponse(w, r, msgDayLocked)
		return
	}
	if req.Assignee != nil && !h.checkAssignee(w, r, *req.Assignee, s.Period.For) {
		return
	}

	s.Assignee = req.Assignee
	h.updateSnapshot(w, r, s, "负责人已更新")
}

func (h *Handler) UpdateSnapshotTime(w http.ResponseWriter, r *http.Request) {
	s := r.Context().Value(SnapshotCtx).(*domain.Snapshot)
	ls := r.Context().Value(LivestreamCtx).(*domain.Livestream)

	var req struct {
		StartTime domain.TimeOfDay `json:"startTime"`
		EndTime   domain.TimeOfDay `json:"endTime"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if ls.Fixed {
		h.errorResponse(w, r, msgDayLocked)
		return
	}
	if err := utils.ValidateTimeRange(req.StartTime, req.EndTime); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	s.Period.StartTime = req.StartTime
	s.Period.EndTime = req.EndTime
	h.updateSnapshot(w, r, s, "班次时间已更新")
}

// UpdateSnapshotAlt 直接设置或清除替班人，只能在锁定后操作。
// 该班次待处理的申请会在同一事务中结束：设置视为同意，清除视为拒绝
func (h *Handler) UpdateSnapshotAlt(w http.ResponseWriter, r *http.Request) {
	s := r.Context().Value(SnapshotCtx).(*domain.Snapshot)
	ls := r.Context().Value(LivestreamCtx).(*domain.Livestream)

	var req struct {
		AltAssignee      string `json:"altAssignee"`
		AltOtherAssignee string `json:"altOtherAssignee"`
		AltNote          string `json:"altNote" validate:"max=500"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !ls.Fixed {
		h.errorResponse(w, r, "排班尚未锁定，不能设置替班")
		return
	}

	alt, err := domain.DecodeAlt(req.AltAssignee, req.AltOtherAssignee)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if alt != nil && s.Assignee != nil && alt.Is(*s.Assignee) {
		h.errorResponse(w, r, "替班人不能是原负责人")
		return
	}
	if alt != nil {
		if id, ok := alt.EmployeeID(); ok && !h.checkAssignee(w, r, id, s.Period.For) {
			return
		}
	}

	s.Alt = alt
	s.AltNote = req.AltNote
	resolved, err := h.repository.UpdateSnapshotAlt(s, actorFrom(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, msgStaleSnapshot)
		default:
			h.databaseError(w, r, err)
		}
		return
	}

	if resolved != nil {
		h.notifyAltRequestDecided(r, resolved, s)
	}

	h.successResponse(w, r, "替班已更新", s)
}

// UpdateSnapshotReport 填写直播数据，锁定后仍然允许
func (h *Handler) UpdateSnapshotReport(w http.ResponseWriter, r *http.Request) {
	s := r.Context().Value(SnapshotCtx).(*domain.Snapshot)

	actor := actorFrom(r)
	if !actor.IsManager() && !actor.Is(s.Assignee) {
		h.errorResponse(w, r, "权限不足")
		return
	}

	var req domain.Report
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	s.Report = req
	h.updateSnapshot(w, r, s, "数据已保存")
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	s := r.Context().Value(SnapshotCtx).(*domain.Snapshot)
	ls := r.Context().Value(LivestreamCtx).(*domain.Livestream)

	if ls.Fixed {
		h.errorResponse(w, r, msgDayLocked)
		return
	}

	if err := h.repository.DeleteSnapshot(s); err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已删除", nil)
}
