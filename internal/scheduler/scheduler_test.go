package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var monday = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

func slot(id int64, role domain.Role, from, to int, assignee *int64) *domain.Snapshot {
	return &domain.Snapshot{
		ID:   id,
		Date: monday,
		Period: domain.PeriodData{
			StartTime: domain.TimeOfDay{Hour: from / 60, Minute: from % 60},
			EndTime:   domain.TimeOfDay{Hour: to / 60, Minute: to % 60},
			For:       role,
		},
		Assignee: assignee,
	}
}

func employees() []*domain.User {
	return []*domain.User{
		{ID: 1, IsActive: true, Roles: []domain.Role{domain.RoleHost}},
		{ID: 2, IsActive: true, Roles: []domain.Role{domain.RoleHost}},
		{ID: 3, IsActive: true, Roles: []domain.Role{domain.RoleAssistant}},
		{ID: 4, IsActive: false, Roles: []domain.Role{domain.RoleHost}},
		{ID: 5, IsActive: true, Roles: []domain.Role{domain.RoleLeader}},
	}
}

func testParameters() *Parameters {
	p := DefaultParameters()
	p.PopulationSize = 30
	p.MaxGenerations = 50
	p.Seed = 20261012
	return p
}

func TestScheduleSuggestsEligibleNonOverlappingAssignees(t *testing.T) {
	one := int64(1)
	ls := &domain.Livestream{
		ID:   1,
		Date: monday,
		Snapshots: []*domain.Snapshot{
			slot(10, domain.RoleHost, 9*60, 10*60, nil),
			slot(11, domain.RoleHost, 9*60+30, 11*60, nil),
			slot(12, domain.RoleAssistant, 9*60, 11*60, nil),
			slot(13, domain.RoleHost, 14*60, 15*60, &one),
		},
	}

	s, err := New(testParameters(), employees(), []*domain.Livestream{ls})
	require.NoError(t, err)

	result, err := s.Schedule()
	require.NoError(t, err)
	require.Len(t, result, 3)

	got := map[int64]int64{}
	for _, r := range result {
		got[r.SnapshotID] = r.Assignee
	}
	assert.NotContains(t, got, int64(13), "已有负责人的班次不给建议")
	assert.Contains(t, []int64{1, 2}, got[10])
	assert.Contains(t, []int64{1, 2}, got[11])
	assert.NotEqual(t, got[10], got[11], "同一时间不能安排同一人")
	assert.Equal(t, int64(3), got[12])
}

func TestScheduleSkipsBusyCandidates(t *testing.T) {
	three := int64(3)
	ls := &domain.Livestream{
		Date: monday,
		Snapshots: []*domain.Snapshot{
			slot(20, domain.RoleAssistant, 9*60, 10*60, &three),
			slot(21, domain.RoleAssistant, 9*60+30, 10*60+30, nil),
			slot(22, domain.RoleHost, 9*60, 10*60, nil),
		},
	}

	s, err := New(testParameters(), employees(), []*domain.Livestream{ls})
	require.NoError(t, err)
	assert.Empty(t, s.candidates[21])

	result, err := s.Schedule()
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(22), result[0].SnapshotID)
}

func TestNewRejectsFixedDaysAndEmptyInput(t *testing.T) {
	_, err := New(testParameters(), employees(), []*domain.Livestream{{
		Date:      monday,
		Fixed:     true,
		Snapshots: []*domain.Snapshot{slot(1, domain.RoleHost, 60, 120, nil)},
	}})
	assert.Error(t, err)

	one := int64(1)
	_, err = New(testParameters(), employees(), []*domain.Livestream{{
		Date:      monday,
		Snapshots: []*domain.Snapshot{slot(1, domain.RoleHost, 60, 120, &one)},
	}})
	assert.ErrorIs(t, err, ErrNothingToAssign)
}

func TestOverlapsRequiresSameDay(t *testing.T) {
	a := slot(1, domain.RoleHost, 60, 120, nil)
	b := slot(2, domain.RoleHost, 90, 150, nil)
	c := slot(3, domain.RoleHost, 120, 180, nil)
	assert.True(t, overlaps(a, b))
	assert.False(t, overlaps(a, c), "首尾相接不算重叠")

	b.Date = monday.AddDate(0, 0, 1)
	assert.False(t, overlaps(a, b))
}
