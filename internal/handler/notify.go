package handler

import (
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// 替班相关的邮件只是通知，投递失败不影响请求结果

func (h *Handler) publish(r *http.Request, msg domain.MailMessage) {
	if err := h.mailer.Publish(r.Context(), msg); err != nil {
		slog.Warn("邮件投递失败", "id", requestIDFrom(r), "type", msg.Type, "to", msg.To, "error", err)
	}
}

func altRequestMailData(req *domain.AltRequest, s *domain.Snapshot) domain.AltRequestMailData {
	return domain.AltRequestMailData{
		Date:      s.Date.Format(domain.DateLayout),
		TimeRange: s.Period.StartTime.String() + "-" + s.Period.EndTime.String(),
		AltNote:   req.AltNote,
	}
}

// notifyAltRequestCreated 通知所有在职的管理员和组长
func (h *Handler) notifyAltRequestCreated(r *http.Request, req *domain.AltRequest, s *domain.Snapshot, requester *domain.User) {
	managers, err := h.repository.GetActiveUsersByRole(domain.RoleAdmin, domain.RoleLeader)
	if err != nil {
		slog.Warn("获取管理员列表失败", "id", requestIDFrom(r), "error", err)
		return
	}

	for _, m := range managers {
		data := altRequestMailData(req, s)
		data.FullName = m.FullName
		data.RequesterName = requester.FullName
		h.publish(r, domain.MailMessage{
			Type: domain.MailTypeAltRequestCreated,
			To:   m.Email,
			Data: data,
		})
	}
}

// notifyAltRequestDecided 通知申请人处理结果
func (h *Handler) notifyAltRequestDecided(r *http.Request, req *domain.AltRequest, s *domain.Snapshot) {
	requester, err := h.repository.GetUserByID(req.CreatedBy)
	if err != nil {
		slog.Warn("获取申请人信息失败", "id", requestIDFrom(r), "error", err)
		return
	}

	data := altRequestMailData(req, s)
	data.FullName = requester.FullName
	data.RequesterName = requester.FullName
	data.Status = "未通过"
	if req.Status == domain.AltRequestAccepted {
		data.Status = "已通过"
		data.AltName = h.altName(req.Alt)
	}

	h.publish(r, domain.MailMessage{
		Type: domain.MailTypeAltRequestDecided,
		To:   requester.Email,
		Data: data,
	})
}

func (h *Handler) altName(alt *domain.AltAssignee) string {
	if alt == nil {
		return ""
	}
	if name, ok := alt.ExternalName(); ok {
		return name
	}
	id, _ := alt.EmployeeID()
	user, err := h.repository.GetUserByID(id)
	if err != nil {
		return alt.String()
	}
	return user.FullName
}
