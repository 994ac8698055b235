package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/repository"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type EmployeePage struct {
	Employees []*domain.User `json:"employees"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
}

// SearchEmployees 按用户名或姓名、角色、在职状态分页查询员工
func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.UserFilter{
		Query: q.Get("q"),
		Role:  domain.Role(q.Get("role")),
	}

	if filter.Role != "" && !filter.Role.Valid() {
		h.errorResponse(w, r, "角色无效")
		return
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			h.errorResponse(w, r, "在职状态无效")
			return
		}
		filter.Active = &active
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := h.repository.SearchUsers(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", EmployeePage{
		Employees: users,
		Total:     total,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string   `json:"username" validate:"required"`
		FullName string   `json:"fullName" validate:"required"`
		Email    string   `json:"email" validate:"required,email"`
		Roles    []string `json:"roles" validate:"required,min=1,dive,oneof=host assistant leader admin"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	// 对密码进行哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Roles:        toRoles(req.Roles),
	}

	if err := h.repository.CreateUser(user); err != nil {
		h.databaseError(w, r, err)
		return
	}

	// 初始密码只通过邮件发送，投递失败时需要让管理员知道
	if err := h.mailer.Publish(r.Context(), domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工创建成功", user)
}

func toRoles(roles []string) []domain.Role {
	out := make([]domain.Role, 0, len(roles))
	for _, role := range roles {
		out = append(out, domain.Role(role))
	}
	return out
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取员工信息成功", user)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string  `json:"fullName"`
		Email    *string  `json:"email" validate:"omitempty,email"`
		Roles    []string `json:"roles" validate:"omitempty,min=1,dive,oneof=host assistant leader admin"`
		IsActive *bool    `json:"isActive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Roles != nil {
		user.Roles = toRoles(req.Roles)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新员工信息失败，请重试")
		default:
			h.databaseError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新员工信息成功", user)
}
