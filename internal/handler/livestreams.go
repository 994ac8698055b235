package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/utils"
)

type weekRequest struct {
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
	ChannelID int64  `json:"channelID" validate:"required"`
}

func (req weekRequest) week() (domain.WeekRange, error) {
	from, err := time.Parse(domain.DateLayout, req.From)
	if err != nil {
		return domain.WeekRange{}, errors.New("开始日期格式错误")
	}
	to, err := time.Parse(domain.DateLayout, req.To)
	if err != nil {
		return domain.WeekRange{}, errors.New("结束日期格式错误")
	}

	week := domain.WeekRange{From: from, To: to, ChannelID: req.ChannelID}
	if err := utils.ValidateWeekRange(week); err != nil {
		return domain.WeekRange{}, err
	}
	return week, nil
}

// readWeek 读取请求体中的日期范围，失败时已写入响应
func (h *Handler) readWeek(w http.ResponseWriter, r *http.Request) (domain.WeekRange, bool) {
	var req weekRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return domain.WeekRange{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return domain.WeekRange{}, false
	}

	week, err := req.week()
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return domain.WeekRange{}, false
	}
	return week, true
}

func (h *Handler) GetLivestreams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	channelID, err := strconv.ParseInt(q.Get("channelID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "频道ID无效")
		return
	}

	week, err := weekRequest{From: q.Get("from"), To: q.Get("to"), ChannelID: channelID}.week()
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	livestreams, err := h.repository.GetLivestreams(week)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班成功", livestreams)
}

// CreateWeekRange 按时段模板创建日期范围内的排班，已锁定的日期跳过
func (h *Handler) CreateWeekRange(w http.ResponseWriter, r *http.Request) {
	week, ok := h.readWeek(w, r)
	if !ok {
		return
	}

	h.fillWeek(w, r, week, "已根据模板创建排班")
}

// SyncWeek 把时段模板的新增内容同步到日期范围内，范围内有任何一天已锁定时拒绝
func (h *Handler) SyncWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := h.readWeek(w, r)
	if !ok {
		return
	}

	fixed, err := h.repository.HasFixedDay(week)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if fixed {
		h.errorResponse(w, r, "所选日期中有已锁定的排班，不能同步")
		return
	}

	h.fillWeek(w, r, week, "已同步模板")
}

func (h *Handler) fillWeek(w http.ResponseWriter, r *http.Request, week domain.WeekRange, msg string) {
	periods, err := h.repository.GetPeriods(week.ChannelID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	created, err := h.repository.FillWeekFromPeriods(week, periods)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.successResponse(w, r, msg, map[string]int{"created": created})
}

func (h *Handler) FixWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := h.readWeek(w, r)
	if !ok {
		return
	}

	if err := h.repository.FixWeek(week); err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班已锁定", nil)
}

// AutoAssign 为未锁定日期中没有负责人的班次生成分配建议，不会写入数据库
func (h *Handler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	week, ok := h.readWeek(w, r)
	if !ok {
		return
	}

	livestreams, err := h.repository.GetLivestreams(week)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	employees, err := h.repository.GetActiveUsersByRole(domain.RoleHost, domain.RoleAssistant)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	s, err := scheduler.New(scheduler.DefaultParameters(), employees, livestreams)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrNothingToAssign):
			h.successResponse(w, r, err.Error(), []domain.AssignmentSuggestion{})
		default:
			h.errorResponse(w, r, err.Error())
		}
		return
	}

	suggestions, err := s.Schedule()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已生成排班建议", suggestions)
}
