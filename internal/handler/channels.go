package handler

import (
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/utils"
)

func (h *Handler) GetAllChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.repository.GetAllChannels()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取频道列表成功", channels)
}

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=50"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	channel := &domain.Channel{Name: req.Name}
	if err := h.repository.CreateChannel(channel); err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.successResponse(w, r, "频道创建成功", channel)
}

// GetPeriods 获取时段模板，channelID 为空时返回所有频道的模板
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	var channelID int64
	if v := r.URL.Query().Get("channelID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "频道ID无效")
			return
		}
		channelID = id
	}

	periods, err := h.repository.GetPeriods(channelID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时段模板成功", periods)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64            `json:"channelID" validate:"required"`
		StartTime domain.TimeOfDay `json:"startTime"`
		EndTime   domain.TimeOfDay `json:"endTime"`
		For       string           `json:"for" validate:"required,oneof=host assistant"`
		Noon      bool             `json:"noon"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	period := &domain.Period{
		ChannelID: req.ChannelID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		For:       domain.Role(req.For),
		Noon:      req.Noon,
	}

	// 同一频道同一岗位的时段不能重叠
	existing, err := h.repository.GetPeriods(req.ChannelID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidatePeriods(append(existing, period)); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreatePeriod(period); err != nil {
		h.databaseError(w, r, err)
		return
	}

	h.successResponse(w, r, "时段模板创建成功", period)
}
