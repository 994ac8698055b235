package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func (c *Client) Login(ctx context.Context, username, password string) (*domain.User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	user := &domain.User{}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) MyInfo(ctx context.Context) (*domain.User, error) {
	user := &domain.User{}
	if err := c.do(ctx, http.MethodGet, "/my-info", nil, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EmployeeQuery 是员工目录的查询条件
type EmployeeQuery struct {
	Query    string
	Role     domain.Role
	Active   *bool
	Page     int
	PageSize int
}

type EmployeePage struct {
	Employees []*domain.User `json:"employees"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
}

func (c *Client) SearchEmployees(ctx context.Context, q EmployeeQuery) (*EmployeePage, error) {
	query := url.Values{}
	if q.Query != "" {
		query.Set("q", q.Query)
	}
	if q.Role != "" {
		query.Set("role", string(q.Role))
	}
	if q.Active != nil {
		query.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	page := &EmployeePage{}
	if err := c.do(ctx, http.MethodGet, "/employees", query, nil, page); err != nil {
		return nil, err
	}
	return page, nil
}
