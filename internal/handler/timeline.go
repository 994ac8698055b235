package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/timeline"
)

type timelineSettings struct {
	SnapStep        int     `json:"snapStep"`
	MinDuration     int     `json:"minDuration"`
	DefaultDuration int     `json:"defaultDuration"`
	MinPxPerMinute  float64 `json:"minPxPerMinute"`
	MaxPxPerMinute  float64 `json:"maxPxPerMinute"`
}

// GetTimelineSettings 返回时间轴编辑器使用的吸附步长、时长和缩放范围
func (h *Handler) GetTimelineSettings(w http.ResponseWriter, r *http.Request) {
	opts := timeline.OptionsFromConfig(h.config)
	limits := timeline.ZoomLimitsFromConfig(h.config)

	h.successResponse(w, r, "获取时间轴设置成功", timelineSettings{
		SnapStep:        opts.SnapStep,
		MinDuration:     opts.MinDuration,
		DefaultDuration: opts.CreateDuration,
		MinPxPerMinute:  limits.Min,
		MaxPxPerMinute:  limits.Max,
	})
}
