package domain

import (
	"fmt"
	"time"
)

const clockLayout = "15:04:05"

// TimeOfDay 表示一天中的某个时刻，精度为分钟
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Clock 返回数据库 TIME 列使用的格式
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

func ParseClock(s string) (TimeOfDay, error) {
	tm, err := time.Parse(clockLayout, s)
	if err != nil {
		tm, err = time.Parse("15:04", s)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("时间格式错误: %s", s)
		}
	}
	return TimeOfDay{Hour: tm.Hour(), Minute: tm.Minute()}, nil
}

// Period 是可复用的时段模板
type Period struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelID"`
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
	For       Role      `json:"for"`
	Noon      bool      `json:"noon"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// Data 返回实例化班次时嵌入的时段数据
func (p *Period) Data() PeriodData {
	id := p.ID
	return PeriodData{
		PeriodID:  &id,
		ChannelID: p.ChannelID,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		For:       p.For,
		Noon:      p.Noon,
	}
}
