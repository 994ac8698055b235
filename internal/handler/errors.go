package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var constraintMessages = map[string]string{
	"users_username_key":              "用户名已存在",
	"users_email_key":                 "邮箱已存在",
	"channels_name_key":               "频道名称已存在",
	"periods_channel_id_fkey":         "频道不存在",
	"periods_time_check":              "结束时间必须晚于开始时间",
	"livestreams_channel_id_fkey":     "频道不存在",
	"snapshots_time_check":            "结束时间必须晚于开始时间",
	"snapshots_alt_check":             "替班人信息不合法",
	"snapshots_livestream_period_key": "该时段的班次已存在",
	"alt_requests_pending_key":        "该班次已有待处理的替班申请",
}

// databaseError 把约束冲突转换成提示信息，其余错误按服务器内部错误处理
func (h *Handler) databaseError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
			h.errorResponse(w, r, msg)
			return
		}
	}
	h.internalServerError(w, r, err)
}
