package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/repository"
)

const msgNotPending = "替班申请已处理"

// CreateAltRequest 负责人为锁定后的班次申请替班，同一班次同时只能有一条待处理的申请
func (h *Handler) CreateAltRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		LivestreamID int64  `json:"livestreamID" validate:"required"`
		SnapshotID   int64  `json:"snapshotID" validate:"required"`
		AltNote      string `json:"altNote" validate:"max=500"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	s, ls, err := h.repository.GetSnapshotByID(req.SnapshotID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "班次不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	switch {
	case s.LivestreamID != req.LivestreamID:
		h.errorResponse(w, r, "班次不存在")
		return
	case !ls.Fixed:
		h.errorResponse(w, r, "该周排班尚未锁定，不能申请替班")
		return
	case s.Assignee == nil || *s.Assignee != myInfo.ID:
		h.errorResponse(w, r, "只有当前负责人可以申请替班")
		return
	case s.Alt != nil:
		h.errorResponse(w, r, "该班次已有替班人")
		return
	}

	altRequest := &domain.AltRequest{
		LivestreamID: s.LivestreamID,
		SnapshotID:   s.ID,
		CreatedBy:    myInfo.ID,
		AltNote:      req.AltNote,
	}
	if err := h.repository.CreateAltRequest(altRequest); err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.notifyAltRequestCreated(r, altRequest, s, myInfo)

	h.successResponse(w, r, "替班申请已提交", altRequest)
}

// GetAltRequests 指定 livestreamID 和 snapshotID 时返回该班次最近一条申请（没有时 data 为 null），
// 否则按 status 列出申请：管理员可以看到所有人的，其他人只能看到自己的
func (h *Handler) GetAltRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actor := actorFrom(r)

	if q.Has("snapshotID") {
		livestreamID, err1 := strconv.ParseInt(q.Get("livestreamID"), 10, 64)
		snapshotID, err2 := strconv.ParseInt(q.Get("snapshotID"), 10, 64)
		if err1 != nil || err2 != nil {
			h.errorResponse(w, r, "班次ID无效")
			return
		}

		req, err := h.repository.GetLatestAltRequest(livestreamID, snapshotID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.successResponse(w, r, "该班次没有替班申请", nil)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if actor.ID != req.CreatedBy && !actor.IsManager() {
			h.successResponse(w, r, "该班次没有替班申请", nil)
			return
		}
		h.successResponse(w, r, "获取替班申请成功", req)
		return
	}

	status := domain.AltRequestStatus(q.Get("status"))
	switch status {
	case "", domain.AltRequestPending, domain.AltRequestAccepted, domain.AltRequestRejected:
	default:
		h.errorResponse(w, r, "申请状态无效")
		return
	}

	createdBy := actor.ID
	if actor.IsManager() {
		createdBy = 0
	}

	requests, err := h.repository.ListAltRequests(status, createdBy)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取替班申请成功", requests)
}

func (h *Handler) GetAltRequest(w http.ResponseWriter, r *http.Request) {
	req := r.Context().Value(AltRequestCtx).(*domain.AltRequest)
	h.successResponse(w, r, "获取替班申请成功", req)
}

// DeleteAltRequest 申请人可以撤回自己待处理的申请，管理员可以删除任意申请
func (h *Handler) DeleteAltRequest(w http.ResponseWriter, r *http.Request) {
	req := r.Context().Value(AltRequestCtx).(*domain.AltRequest)

	actor := actorFrom(r)
	if !actor.IsManager() && req.Status != domain.AltRequestPending {
		h.errorResponse(w, r, msgNotPending)
		return
	}

	if err := h.repository.DeleteAltRequest(req.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "替班申请已删除", nil)
}

// decidedSnapshot 加载申请对应的班次，失败时已写入响应
func (h *Handler) decidedSnapshot(w http.ResponseWriter, r *http.Request, req *domain.AltRequest) (*domain.Snapshot, *domain.Livestream, bool) {
	if req.Status != domain.AltRequestPending {
		h.errorResponse(w, r, msgNotPending)
		return nil, nil, false
	}

	s, ls, err := h.repository.GetSnapshotByID(req.SnapshotID)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil, nil, false
	}
	return s, ls, true
}

func (h *Handler) AcceptAltRequest(w http.ResponseWriter, r *http.Request) {
	altRequest := r.Context().Value(AltRequestCtx).(*domain.AltRequest)

	var req struct {
		AltAssignee      string `json:"altAssignee" validate:"required"`
		AltOtherAssignee string `json:"altOtherAssignee"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	alt, err := domain.DecodeAlt(req.AltAssignee, req.AltOtherAssignee)
	if err != nil || alt == nil {
		h.errorResponse(w, r, "请选择替班人")
		return
	}

	s, ls, ok := h.decidedSnapshot(w, r, altRequest)
	if !ok {
		return
	}
	if s.Assignee != nil && alt.Is(*s.Assignee) {
		h.errorResponse(w, r, "替班人不能是原负责人")
		return
	}
	if id, ok := alt.EmployeeID(); ok && !h.checkAssignee(w, r, id, s.Period.For) {
		return
	}

	if err := h.repository.AcceptAltRequest(altRequest, *alt, actorFrom(r).ID, ls.ChannelID); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			h.errorResponse(w, r, msgNotPending)
		default:
			h.databaseError(w, r, err)
		}
		return
	}

	h.notifyAltRequestDecided(r, altRequest, s)

	h.successResponse(w, r, "已同意替班申请", altRequest)
}

func (h *Handler) RejectAltRequest(w http.ResponseWriter, r *http.Request) {
	altRequest := r.Context().Value(AltRequestCtx).(*domain.AltRequest)

	s, _, ok := h.decidedSnapshot(w, r, altRequest)
	if !ok {
		return
	}

	if err := h.repository.RejectAltRequest(altRequest, actorFrom(r).ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			h.errorResponse(w, r, msgNotPending)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifyAltRequestDecided(r, altRequest, s)

	h.successResponse(w, r, "已拒绝替班申请", altRequest)
}
