package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func TestValidateTimeRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end domain.TimeOfDay
		ok         bool
	}{
		{"正常", domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}, true},
		{"相等", domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 9}, false},
		{"倒置", domain.TimeOfDay{Hour: 10}, domain.TimeOfDay{Hour: 9}, false},
		{"越界", domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 24}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeRange(tt.start, tt.end)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateWeekRange(t *testing.T) {
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateWeekRange(domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6), ChannelID: 1}))
	assert.Error(t, ValidateWeekRange(domain.WeekRange{From: monday, To: monday.AddDate(0, 0, 6)}))
	assert.Error(t, ValidateWeekRange(domain.WeekRange{From: monday, To: monday.AddDate(0, 0, -1), ChannelID: 1}))
	assert.Error(t, ValidateWeekRange(domain.WeekRange{From: monday, To: monday.AddDate(0, 0, MaxRangeDays), ChannelID: 1}))
}

func TestValidatePeriodsDetectsOverlapPerRole(t *testing.T) {
	periods := GenerateDefaultPeriods(1)
	assert.NoError(t, ValidatePeriods(periods))

	periods = append(periods, &domain.Period{
		ChannelID: 1,
		StartTime: domain.TimeOfDay{Hour: 11},
		EndTime:   domain.TimeOfDay{Hour: 13},
		For:       domain.RoleHost,
	})
	assert.Error(t, ValidatePeriods(periods))
}

func TestValidateAssignee(t *testing.T) {
	host := &domain.User{FullName: "张三", IsActive: true, Roles: []domain.Role{domain.RoleHost}}
	assert.NoError(t, ValidateAssignee(host, domain.RoleHost))
	assert.Error(t, ValidateAssignee(host, domain.RoleAssistant))

	host.IsActive = false
	assert.Error(t, ValidateAssignee(host, domain.RoleHost))
}

func TestGenerateUsernameFromChineseName(t *testing.T) {
	username := GenerateUsernameFromChineseName("张三")
	assert.Regexp(t, `^z[a-z]*s[a-z]*[0-9]{1,3}$`, username)
}
