package domain

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

// PeriodData 是嵌入在班次中的时段数据，班次可以独立于模板调整时间
type PeriodData struct {
	PeriodID  *int64    `json:"periodID"`
	ChannelID int64     `json:"channelID"`
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
	For       Role      `json:"for"`
	Noon      bool      `json:"noon"`
}

// Report 是直播结束后填写的数据，对排班逻辑不透明
type Report struct {
	Income             *float64 `json:"income"`
	AdsCost            *float64 `json:"adsCost"`
	ClickRate          *float64 `json:"clickRate"`
	AvgViewingDuration *float64 `json:"avgViewingDuration"`
	Orders             *int64   `json:"orders"`
	Comments           *int64   `json:"comments"`
}

// Snapshot 是某一天某个时段的具体班次
type Snapshot struct {
	ID           int64        `json:"id"`
	LivestreamID int64        `json:"livestreamID"`
	Date         time.Time    `json:"date"`
	Period       PeriodData   `json:"period"`
	Assignee     *int64       `json:"assignee"`
	Alt          *AltAssignee `json:"-"`
	AltNote      string       `json:"altNote"`
	Goal         float64      `json:"goal"`
	Report
	Version int32 `json:"-"`
}

// HasReport 仅当收入、广告费、点击率、平均观看时长和订单数全部填写时成立
func (s *Snapshot) HasReport() bool {
	return s.Income != nil &&
		s.AdsCost != nil &&
		s.ClickRate != nil &&
		s.AvgViewingDuration != nil &&
		s.Orders != nil
}

func (s *Snapshot) StartMinutes() int {
	return s.Period.StartTime.Minutes()
}

func (s *Snapshot) EndMinutes() int {
	return s.Period.EndTime.Minutes()
}

type snapshotJSON Snapshot

func (s Snapshot) MarshalJSON() ([]byte, error) {
	altAssignee, altOther := EncodeAlt(s.Alt)
	return json.Marshal(struct {
		snapshotJSON
		AltAssignee      string `json:"altAssignee"`
		AltOtherAssignee string `json:"altOtherAssignee"`
		HasReport        bool   `json:"hasReport"`
	}{snapshotJSON(s), altAssignee, altOther, s.HasReport()})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	aux := struct {
		*snapshotJSON
		AltAssignee      string `json:"altAssignee"`
		AltOtherAssignee string `json:"altOtherAssignee"`
	}{snapshotJSON: (*snapshotJSON)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	alt, err := DecodeAlt(aux.AltAssignee, aux.AltOtherAssignee)
	if err != nil {
		return err
	}
	s.Alt = alt
	return nil
}

// Livestream 是某个频道某一天的聚合
type Livestream struct {
	ID           int64       `json:"id"`
	ChannelID    int64       `json:"channelID"`
	Date         time.Time   `json:"date"`
	Fixed        bool        `json:"fixed"`
	Snapshots    []*Snapshot `json:"snapshots"`
	TotalOrders  int64       `json:"totalOrders"`
	TotalIncome  float64     `json:"totalIncome"`
	TotalAdsCost float64     `json:"totalAdsCost"`
	Version      int32       `json:"-"`
}

func (l *Livestream) Snapshot(id int64) *Snapshot {
	for _, s := range l.Snapshots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// WeekRange 是按日期闭区间表示的一段日期，通常为一周
type WeekRange struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	ChannelID int64     `json:"channelID"`
}

// Days 返回区间内的每一天（按 UTC 零点）
func (w WeekRange) Days() []time.Time {
	from := truncateDay(w.From)
	to := truncateDay(w.To)
	days := []time.Time{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (w WeekRange) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(truncateDay(w.From)) && !d.After(truncateDay(w.To))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ShiftDraft 是新建班次的输入；PeriodID 为空时表示在时间轴上直接点击创建
type ShiftDraft struct {
	Date      time.Time `json:"date"`
	ChannelID int64     `json:"channelID" validate:"required"`
	PeriodID  *int64    `json:"periodID"`
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
	For       Role      `json:"for" validate:"required,oneof=host assistant"`
	Assignee  *int64    `json:"assignee"`
	Goal      float64   `json:"goal"`
}

// Rollup 根据班次数据重新计算当天的汇总
func (l *Livestream) Rollup() {
	l.TotalOrders, l.TotalIncome, l.TotalAdsCost = 0, 0, 0
	for _, s := range l.Snapshots {
		if s.Orders != nil {
			l.TotalOrders += *s.Orders
		}
		if s.Income != nil {
			l.TotalIncome += *s.Income
		}
		if s.AdsCost != nil {
			l.TotalAdsCost += *s.AdsCost
		}
	}
}
