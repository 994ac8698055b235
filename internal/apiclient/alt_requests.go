package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func altRequestPath(id int64, suffix string) string {
	return fmt.Sprintf("/alt-requests/%d%s", id, suffix)
}

func (c *Client) CreateAltRequest(ctx context.Context, livestreamID, snapshotID int64, note string) (*domain.AltRequest, error) {
	body := struct {
		LivestreamID int64  `json:"livestreamID"`
		SnapshotID   int64  `json:"snapshotID"`
		AltNote      string `json:"altNote"`
	}{livestreamID, snapshotID, note}

	req := &domain.AltRequest{}
	if err := c.do(ctx, http.MethodPost, "/alt-requests", nil, body, req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetAltRequestBySnapshot 服务端返回 data 为 null 时表示没有申请
func (c *Client) GetAltRequestBySnapshot(ctx context.Context, livestreamID, snapshotID int64) (*domain.AltRequest, error) {
	query := url.Values{
		"livestreamID": {strconv.FormatInt(livestreamID, 10)},
		"snapshotID":   {strconv.FormatInt(snapshotID, 10)},
	}

	var req *domain.AltRequest
	if err := c.do(ctx, http.MethodGet, "/alt-requests", query, nil, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) GetAltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	req := &domain.AltRequest{}
	if err := c.do(ctx, http.MethodGet, altRequestPath(requestID, ""), nil, nil, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListAltRequests 按状态列出申请，status 为空时不筛选
func (c *Client) ListAltRequests(ctx context.Context, status domain.AltRequestStatus) ([]*domain.AltRequest, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}

	requests := []*domain.AltRequest{}
	if err := c.do(ctx, http.MethodGet, "/alt-requests", query, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) AcceptAltRequest(ctx context.Context, requestID int64, alt domain.AltAssignee) (*domain.AltRequest, error) {
	altAssignee, altOther := domain.EncodeAlt(&alt)
	body := map[string]string{
		"altAssignee":      altAssignee,
		"altOtherAssignee": altOther,
	}

	req := &domain.AltRequest{}
	if err := c.do(ctx, http.MethodPost, altRequestPath(requestID, "/accept"), nil, body, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) RejectAltRequest(ctx context.Context, requestID int64) (*domain.AltRequest, error) {
	req := &domain.AltRequest{}
	if err := c.do(ctx, http.MethodPost, altRequestPath(requestID, "/reject"), nil, nil, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) DeleteAltRequest(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodDelete, altRequestPath(requestID, ""), nil, nil, nil)
}
