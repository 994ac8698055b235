package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/schedule"
)

var _ schedule.Backend = (*Client)(nil)

type weekBody struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ChannelID int64  `json:"channelID"`
}

func newWeekBody(week domain.WeekRange) weekBody {
	return weekBody{
		From:      week.From.Format(domain.DateLayout),
		To:        week.To.Format(domain.DateLayout),
		ChannelID: week.ChannelID,
	}
}

func snapshotPath(id int64, suffix string) string {
	return fmt.Sprintf("/snapshots/%d%s", id, suffix)
}

func (c *Client) ListLivestreams(ctx context.Context, week domain.WeekRange) ([]*domain.Livestream, error) {
	body := newWeekBody(week)
	query := url.Values{
		"from":      {body.From},
		"to":        {body.To},
		"channelID": {strconv.FormatInt(body.ChannelID, 10)},
	}

	livestreams := []*domain.Livestream{}
	if err := c.do(ctx, http.MethodGet, "/livestreams", query, nil, &livestreams); err != nil {
		return nil, err
	}
	return livestreams, nil
}

func (c *Client) CreateWeekRange(ctx context.Context, week domain.WeekRange) error {
	return c.do(ctx, http.MethodPost, "/livestreams/week-range", nil, newWeekBody(week), nil)
}

func (c *Client) SyncWeek(ctx context.Context, week domain.WeekRange) error {
	return c.do(ctx, http.MethodPost, "/livestreams/sync", nil, newWeekBody(week), nil)
}

func (c *Client) FixWeek(ctx context.Context, week domain.WeekRange) error {
	return c.do(ctx, http.MethodPost, "/livestreams/fix", nil, newWeekBody(week), nil)
}

// AutoAssign 获取自动排班建议，不会修改排班
func (c *Client) AutoAssign(ctx context.Context, week domain.WeekRange) ([]domain.AssignmentSuggestion, error) {
	suggestions := []domain.AssignmentSuggestion{}
	if err := c.do(ctx, http.MethodPost, "/livestreams/auto-assign", nil, newWeekBody(week), &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (c *Client) AddShift(ctx context.Context, draft domain.ShiftDraft) (*domain.Snapshot, error) {
	body := struct {
		Date      string           `json:"date"`
		ChannelID int64            `json:"channelID"`
		PeriodID  *int64           `json:"periodID"`
		StartTime domain.TimeOfDay `json:"startTime"`
		EndTime   domain.TimeOfDay `json:"endTime"`
		For       domain.Role      `json:"for"`
		Assignee  *int64           `json:"assignee"`
		Goal      float64          `json:"goal"`
	}{
		Date:      draft.Date.Format(domain.DateLayout),
		ChannelID: draft.ChannelID,
		PeriodID:  draft.PeriodID,
		StartTime: draft.StartTime,
		EndTime:   draft.EndTime,
		For:       draft.For,
		Assignee:  draft.Assignee,
		Goal:      draft.Goal,
	}

	s := &domain.Snapshot{}
	if err := c.do(ctx, http.MethodPost, "/snapshots", nil, body, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) UpdateAssignee(ctx context.Context, snapshotID int64, assignee *int64) error {
	body := map[string]*int64{"assignee": assignee}
	return c.do(ctx, http.MethodPut, snapshotPath(snapshotID, "/assignee"), nil, body, nil)
}

func (c *Client) UpdateShiftTime(ctx context.Context, snapshotID int64, start, end domain.TimeOfDay) error {
	body := map[string]domain.TimeOfDay{"startTime": start, "endTime": end}
	return c.do(ctx, http.MethodPatch, snapshotPath(snapshotID, "/time"), nil, body, nil)
}

func (c *Client) DeleteShift(ctx context.Context, snapshotID int64) error {
	return c.do(ctx, http.MethodDelete, snapshotPath(snapshotID, ""), nil, nil, nil)
}

func (c *Client) UpdateAlt(ctx context.Context, snapshotID int64, update domain.AltUpdate) error {
	altAssignee, altOther := domain.EncodeAlt(update.Alt)
	body := map[string]string{
		"altAssignee":      altAssignee,
		"altOtherAssignee": altOther,
		"altNote":          update.Note,
	}
	return c.do(ctx, http.MethodPut, snapshotPath(snapshotID, "/alt"), nil, body, nil)
}

func (c *Client) UpdateReport(ctx context.Context, snapshotID int64, report domain.Report) error {
	return c.do(ctx, http.MethodPatch, snapshotPath(snapshotID, "/report"), nil, report, nil)
}
