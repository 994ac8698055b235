package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// MaxRangeDays 是一次批量操作允许的最大天数
const MaxRangeDays = 31

func ValidateTimeRange(start, end domain.TimeOfDay) error {
	if !start.Valid() {
		return fmt.Errorf("开始时间 %s 不合法", start)
	}
	if !end.Valid() {
		return fmt.Errorf("结束时间 %s 不合法", end)
	}
	if !start.Before(end) {
		return errors.New("结束时间必须晚于开始时间")
	}
	return nil
}

func ValidateWeekRange(week domain.WeekRange) error {
	if week.ChannelID <= 0 {
		return errors.New("请选择频道")
	}
	if week.To.Before(week.From) {
		return errors.New("结束日期不能早于开始日期")
	}
	if len(week.Days()) > MaxRangeDays {
		return fmt.Errorf("日期范围不能超过 %d 天", MaxRangeDays)
	}
	return nil
}

// ValidateAssignee 检查员工能否担任某个岗位
func ValidateAssignee(user *domain.User, role domain.Role) error {
	if !user.IsActive {
		return fmt.Errorf("%s 已离职", user.FullName)
	}
	if !user.HasRole(role) {
		return fmt.Errorf("%s 不能担任 %s", user.FullName, role)
	}
	return nil
}

// ValidatePeriods 检查同一频道同一岗位的时段之间没有重叠
func ValidatePeriods(periods []*domain.Period) error {
	for i := 0; i < len(periods); i++ {
		if err := ValidateTimeRange(periods[i].StartTime, periods[i].EndTime); err != nil {
			return fmt.Errorf("时段 %d: %w", i, err)
		}
		for j := i + 1; j < len(periods); j++ {
			a, b := periods[i], periods[j]
			if a.ChannelID != b.ChannelID || a.For != b.For {
				continue
			}
			if a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime) {
				return fmt.Errorf("时段 %s-%s 和 %s-%s 时间冲突", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}
	return nil
}
